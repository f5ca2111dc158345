package validation

import (
	"strings"

	"github.com/ndewijer/Virtual-Portfolio-Ledger/internal/api/request"
)

// ValidateCreatePortfolio validates a portfolio creation request.
func ValidateCreatePortfolio(req request.CreatePortfolioRequest) error {
	f := fields{}

	if strings.TrimSpace(req.Name) == "" {
		f["name"] = "name is required"
	} else if len(req.Name) > 100 {
		f["name"] = "name must be 100 characters or less"
	}

	return f.err()
}
