package fixup

import "testing"

func TestArgRelocPackRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		r    ArgRelocation
	}{
		{"trivial", ArgRelocation{}},
		{"all GR", ArgRelocation{Arg: [4]ArgClass{ArgClassGR, ArgClassGR, ArgClassGR, ArgClassGR}, Return: ArgClassGR}},
		{"mixed", ArgRelocation{Arg: [4]ArgClass{ArgClassGR, ArgClassFR, ArgClassSplit, ArgClassNone}, Return: ArgClassFR}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word := PackArgReloc(tt.r)
			if word >= 1<<10 {
				t.Fatalf("PackArgReloc() = 0x%x, does not fit 10 bits", word)
			}
			got := UnpackArgReloc(word)
			if got != tt.r {
				t.Fatalf("UnpackArgReloc(PackArgReloc(r)) = %+v, want %+v", got, tt.r)
			}
		})
	}
}

func TestArgRelocationIsTrivial(t *testing.T) {
	if !(ArgRelocation{}).IsTrivial() {
		t.Fatal("zero-value ArgRelocation should be trivial")
	}
	nonTrivial := ArgRelocation{Return: ArgClassGR}
	if nonTrivial.IsTrivial() {
		t.Fatal("ArgRelocation with a set return class should not be trivial")
	}
}
