package model

import (
	"fmt"
	"strings"

	"snapshotengine/src/utils"
)

func requireIdentity(kind Kind, columns []string, values []string) error {
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s %s is empty", ErrMalformedPayload, kind, columns[i])
		}
	}
	return nil
}

func requireFinite(kind Kind, identity []string, values map[string]float64) error {
	for name, v := range values {
		if !utils.IsFinite(v) {
			return fmt.Errorf("%w: %s %s: %s is not finite", ErrMalformedPayload, kind, strings.Join(identity, "/"), name)
		}
	}
	return nil
}
