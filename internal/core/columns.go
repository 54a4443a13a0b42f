package core

import "strings"

// Known header names per role, in NormalizeName form.
var (
	weightSynonyms = map[string]bool{
		"peso":      true,
		"peso_kg":   true,
		"massa":     true,
		"massa_kg":  true,
		"weight":    true,
		"weight_kg": true,
		"mass":      true,
		"mass_kg":   true,
	}
	heightSynonyms = map[string]bool{
		"altura":    true,
		"altura_m":  true,
		"altura_cm": true,
		"estatura":  true,
		"height":    true,
		"height_m":  true,
		"height_cm": true,
		"tamanho":   true,
	}
)

func synonymsFor(role Role) map[string]bool {
	if role == RoleHeight {
		return heightSynonyms
	}
	return weightSynonyms
}

// FindColumn returns the header naming the given role.
//
// With an explicit name the header is matched exactly, then by normalized
// name. Without one, headers are matched against the role's synonyms and
// exactly one must match.
func FindColumn(header []string, role Role, explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		for _, h := range header {
			if h == explicit {
				return h, nil
			}
		}
		want := NormalizeName(explicit)
		for _, h := range header {
			if NormalizeName(h) == want {
				return h, nil
			}
		}
		return "", &ColumnError{Role: role, Column: explicit, Err: ErrColumnNotFound}
	}

	synonyms := synonymsFor(role)
	var matches []string
	for _, h := range header {
		if synonyms[NormalizeName(h)] {
			matches = append(matches, h)
		}
	}

	switch len(matches) {
	case 0:
		return "", &ColumnError{Role: role, Err: ErrColumnNotFound}
	case 1:
		return matches[0], nil
	default:
		return "", &ColumnError{Role: role, Candidates: matches, Err: ErrAmbiguousColumn}
	}
}

// ResolveColumns finds the weight and height columns of a header.
func ResolveColumns(header []string, weightOverride, heightOverride string) (weight, height string, err error) {
	if weight, err = FindColumn(header, RoleWeight, weightOverride); err != nil {
		return "", "", err
	}
	if height, err = FindColumn(header, RoleHeight, heightOverride); err != nil {
		return "", "", err
	}
	return weight, height, nil
}
