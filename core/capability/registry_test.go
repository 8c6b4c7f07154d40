package capability_test

import (
	"strings"
	"testing"

	"github.com/taskgate/taskgate/core/capability"
)

type fakeContract interface {
	Name() string
}

type fakeImpl struct{ name string }

func (f *fakeImpl) Name() string { return f.name }

func TestRegistry_RegisterAndResolve(t *testing.T) {
	r := capability.NewRegistry()

	impl := &fakeImpl{name: "tasks"}
	if err := r.Register("tasks", impl); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := capability.Resolve[fakeContract](r, "tasks")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.Name() != "tasks" {
		t.Errorf("Name() = %q, want tasks", got.Name())
	}
}

func TestRegistry_DuplicateContract(t *testing.T) {
	r := capability.NewRegistry()

	if err := r.Register("tasks", &fakeImpl{}); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	err := r.Register("tasks", &fakeImpl{})
	if err == nil {
		t.Fatal("duplicate Register succeeded, want error")
	}
	if !strings.Contains(err.Error(), "already bound") {
		t.Errorf("error = %q, want mention of already bound", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (no accumulation)", r.Len())
	}
}

func TestRegistry_NilImplementation(t *testing.T) {
	r := capability.NewRegistry()
	if err := r.Register("tasks", nil); err == nil {
		t.Fatal("Register(nil) succeeded, want error")
	}
}

func TestRegistry_SealedRejectsRegistration(t *testing.T) {
	r := capability.NewRegistry()
	r.Seal()

	if err := r.Register("tasks", &fakeImpl{}); err == nil {
		t.Fatal("Register after Seal succeeded, want error")
	}
}

func TestRegistry_MissingContract(t *testing.T) {
	r := capability.NewRegistry()

	if _, ok := r.Get("tasks"); ok {
		t.Error("Get on empty registry returned ok")
	}
	if _, err := capability.Resolve[fakeContract](r, "tasks"); err == nil {
		t.Error("Resolve on empty registry succeeded, want error")
	}
}

func TestRegistry_WrongType(t *testing.T) {
	r := capability.NewRegistry()
	if err := r.Register("tasks", "not a contract"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if _, err := capability.Resolve[fakeContract](r, "tasks"); err == nil {
		t.Error("Resolve with mismatched type succeeded, want error")
	}
}

func TestRegistry_Contracts(t *testing.T) {
	r := capability.NewRegistry()
	for _, name := range []string{"tasks", "billing", "audit"} {
		if err := r.Register(name, &fakeImpl{name: name}); err != nil {
			t.Fatalf("Register(%q) failed: %v", name, err)
		}
	}

	got := r.Contracts()
	want := []string{"audit", "billing", "tasks"}
	if len(got) != len(want) {
		t.Fatalf("Contracts() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Contracts()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
