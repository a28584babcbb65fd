package urp

import "sort"

// ManifestValidator reconciles a declared manifest with the files that
// were actually produced. Extra files never invalidate: the model may add
// incidental files.
type ManifestValidator struct {
	policy *PathPolicy
}

func NewManifestValidator(policy *PathPolicy) *ManifestValidator {
	return &ManifestValidator{policy: policy}
}

func (v *ManifestValidator) Validate(manifest []ManifestEntry, files map[string]string) ManifestValidation {
	res := ManifestValidation{
		Expected: []string{},
		Received: []string{},
		Missing:  []string{},
		Extra:    []string{},
	}

	expected := make(map[string]struct{})
	for _, e := range manifest {
		if e.Status != StatusIncluded || e.Action == ActionDelete {
			continue
		}
		p := NormalizePath(e.File)
		if p == "" || v.policy.IsIgnored(p) {
			continue
		}
		if _, dup := expected[p]; dup {
			continue
		}
		expected[p] = struct{}{}
		res.Expected = append(res.Expected, p)
	}

	for p := range files {
		res.Received = append(res.Received, p)
	}
	sort.Strings(res.Received)

	for _, p := range res.Expected {
		if _, ok := files[p]; !ok {
			res.Missing = append(res.Missing, p)
		}
	}
	for _, p := range res.Received {
		if _, ok := expected[p]; !ok {
			res.Extra = append(res.Extra, p)
		}
	}
	res.IsValid = len(res.Missing) == 0
	return res
}
