package godi

import (
	"fmt"
)

type (
	// validator checks the providers found for a request, and may narrow them down.
	validator interface {
		validate(results []queryResult) ([]queryResult, error)

		fmt.Stringer
	}

	validatorUniqueMandatory struct{}

	validatorUniqueOptional struct{}

	validatorMultiple struct{}
)

// narrowByPriority keeps only the first result if it has a strictly higher priority than the others.
// Results are expected sorted by priority, highest first.
func narrowByPriority(results []queryResult) []queryResult {
	if len(results) > 1 && results[0].provider.Priority() > results[1].provider.Priority() {
		return results[:1]
	}
	return results
}

func (c validatorUniqueMandatory) validate(results []queryResult) ([]queryResult, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("no providers found for %s", c)
	}
	results = narrowByPriority(results)
	if len(results) > 1 {
		return nil, fmt.Errorf("multiple providers found for %s, expected one and only one, got %d", c, len(results))
	}

	return results, nil
}

func (c validatorUniqueMandatory) String() string {
	return "<unique mandatory>"
}

func (c validatorUniqueOptional) validate(results []queryResult) ([]queryResult, error) {
	results = narrowByPriority(results)
	if len(results) > 1 {
		return nil, fmt.Errorf("multiple providers found for %s, expected one and only one, got %d", c, len(results))
	}

	return results, nil
}

func (c validatorUniqueOptional) String() string {
	return "<unique optional>"
}

func (c validatorMultiple) validate(results []queryResult) ([]queryResult, error) {
	return results, nil
}

func (c validatorMultiple) String() string {
	return "<multiple>"
}
