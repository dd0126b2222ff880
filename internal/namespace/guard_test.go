package namespace

import (
	"errors"
	"testing"
)

func TestAuthorizeWriteWorkspace(t *testing.T) {
	if err := AuthorizeWrite("workspace.app1.security", false); err != nil {
		t.Errorf("workspace write denied: %v", err)
	}
	if err := AuthorizeWrite("workspace.app1.security", true); err != nil {
		t.Errorf("internal caller denied workspace write: %v", err)
	}
}

func TestAuthorizeWriteFramework(t *testing.T) {
	if err := AuthorizeWrite("cortex.core", true); err != nil {
		t.Errorf("internal caller denied framework write: %v", err)
	}

	err := AuthorizeWrite("cortex.core", false)
	if err == nil {
		t.Fatal("expected denial for non-internal framework write")
	}
	var denied *DeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("error type = %T, want *DeniedError", err)
	}
	if denied.Namespace != "cortex.core" {
		t.Errorf("denied namespace = %q, want cortex.core", denied.Namespace)
	}
}

func TestAuthorizeWriteEmpty(t *testing.T) {
	// Empty namespace is denied with a different reason than a cross-domain
	// violation — callers distinguish the two by the reason string.
	err := AuthorizeWrite("", false)
	if err == nil {
		t.Fatal("expected denial for empty namespace")
	}
	crossErr := AuthorizeWrite("cortex.core", false)

	var empty, cross *DeniedError
	if !errors.As(err, &empty) || !errors.As(crossErr, &cross) {
		t.Fatal("expected *DeniedError for both denials")
	}
	if empty.Reason == cross.Reason {
		t.Error("empty-namespace and cross-domain denials share a reason")
	}

	if err := AuthorizeWrite("   ", true); err == nil {
		t.Error("whitespace namespace should be denied even for internal callers")
	}
}

func TestMatches(t *testing.T) {
	cases := []struct {
		ns, glob string
		want     bool
	}{
		{"workspace.app1.security", "workspace.app1.*", true},
		{"workspace.app1.a.b", "workspace.app1.*", true},
		{"workspace.app2.security", "workspace.app1.*", false},
		{"workspace.app10.security", "workspace.app1.*", false},
		{"cortex.core", "cortex.*", true},
		{"workspace.app1", "workspace.app1", true},
		{"workspace.app1.x", "workspace.app1", false},
		{"anything.at.all", "*", true},
		{"", "workspace.*", false},
	}
	for _, c := range cases {
		if got := Matches(c.ns, c.glob); got != c.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", c.ns, c.glob, got, c.want)
		}
	}
}

func TestPriorityWeight(t *testing.T) {
	cases := []struct {
		ns, current string
		want        float64
	}{
		{"workspace.app.x", "workspace.app.x", 2.0},
		{"cortex.core", "workspace.app.x", 1.5},
		{"workspace.other.y", "workspace.app.x", 0.5},
		{"cortex.core", "cortex.core", 2.0},
		{"", "", 0.5},
	}
	for _, c := range cases {
		if got := PriorityWeight(c.ns, c.current); got != c.want {
			t.Errorf("PriorityWeight(%q, %q) = %v, want %v", c.ns, c.current, got, c.want)
		}
	}
}
