package urp

import (
	"reflect"
	"testing"
)

func TestManifestValidate(t *testing.T) {
	v := NewManifestValidator(NewPathPolicy([]string{"node_modules"}, nil))
	manifest := []ManifestEntry{
		{File: "a.ts", Action: ActionCreate, Status: StatusIncluded},
		{File: "./b.ts", Action: ActionUpdate, Status: StatusIncluded},
		{File: "c.ts", Action: ActionCreate, Status: StatusPending},
		{File: "d.ts", Action: ActionDelete, Status: StatusIncluded},
		{File: "node_modules/x.js", Action: ActionCreate, Status: StatusIncluded},
		{File: "a.ts", Action: ActionCreate, Status: StatusIncluded},
	}

	res := v.Validate(manifest, map[string]string{"a.ts": "a", "e.ts": "e"})
	want := ManifestValidation{
		Expected: []string{"a.ts", "b.ts"},
		Received: []string{"a.ts", "e.ts"},
		Missing:  []string{"b.ts"},
		Extra:    []string{"e.ts"},
		IsValid:  false,
	}
	if !reflect.DeepEqual(res, want) {
		t.Fatalf("Validate = %#v, want %#v", res, want)
	}

	res = v.Validate(manifest, map[string]string{"a.ts": "a", "b.ts": "b", "e.ts": "e"})
	if !res.IsValid {
		t.Fatalf("extra files must not invalidate: %#v", res)
	}
}

func TestManifestValidateEmpty(t *testing.T) {
	v := NewManifestValidator(NewPathPolicy(nil, nil))
	res := v.Validate(nil, nil)
	if !res.IsValid || res.Expected == nil || res.Missing == nil {
		t.Fatalf("empty manifest = %#v", res)
	}
}
