package validation

import (
	"strings"
	"testing"
)

type sample struct {
	Name string `validate:"required"`
	Kind string `validate:"required,oneof=hike bike"`
	Tags []int  `validate:"max=2"`
}

func TestStruct_Valid(t *testing.T) {
	if err := Struct(&sample{Name: "x", Kind: "hike"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStruct_ReportsEveryField(t *testing.T) {
	err := Struct(&sample{Kind: "swim", Tags: []int{1, 2, 3}})
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, want := range []string{"Name is required", "Kind must be one of [hike bike]", "Tags must be at most 2"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}
