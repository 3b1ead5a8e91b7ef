package som

import (
	"bytes"
	"testing"

	"github.com/appsworld/go-som/pkg/fixup"
	"github.com/appsworld/go-som/types"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := NewWriter(PARisc)

	text := &Space{Name: "$TEXT$", IsLoadable: true, IsDefined: true}
	code := &Subspace{
		Name: "$CODE$", Space: text, Policy: AccessCode,
		IsLoadable: true, CodeOnly: true,
		Alignment: 8,
		Length:    16, InitializationLength: 16,
		Data: []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
	}
	text.Subspaces = []*Subspace{code}
	w.AddSpace(text)

	sym := &Symbol{Name: "main", Type: SymCode, Scope: ScopeUniversal, Value: 0}
	w.AddSymbol(sym)

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}

	f, err := NewFile(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}

	if got, want := len(f.Spaces), 1; got != want {
		t.Fatalf("len(Spaces) = %d, want %d", got, want)
	}
	if got, want := f.Spaces[0].Name, "$TEXT$"; got != want {
		t.Errorf("Spaces[0].Name = %q, want %q", got, want)
	}
	if got, want := len(f.Spaces[0].Subspaces), 1; got != want {
		t.Fatalf("len(Spaces[0].Subspaces) = %d, want %d", got, want)
	}
	gotSS := f.Spaces[0].Subspaces[0]
	if gotSS.Name != "$CODE$" {
		t.Errorf("Subspace.Name = %q, want %q", gotSS.Name, "$CODE$")
	}
	if diff := cmp.Diff(code.Data, gotSS.Data); diff != "" {
		t.Errorf("Subspace.Data mismatch (-want +got):\n%s", diff)
	}
	if got, want := len(f.Symbols), 1; got != want {
		t.Fatalf("len(Symbols) = %d, want %d", got, want)
	}
	if f.Symbols[0].Name != "main" || f.Symbols[0].Scope != ScopeUniversal {
		t.Errorf("Symbols[0] = %+v", f.Symbols[0])
	}
}

func TestArgRelocationSymmetry(t *testing.T) {
	r := ArgRelocationForTest()
	word := fixup.PackArgReloc(r)
	if got := fixup.UnpackArgReloc(word); !cmp.Equal(got, r, cmpopts.EquateComparable()) {
		t.Errorf("UnpackArgReloc(PackArgReloc(r)) = %+v, want %+v", got, r)
	}
}

func ArgRelocationForTest() fixup.ArgRelocation {
	return fixup.ArgRelocation{
		Arg:    [4]fixup.ArgClass{fixup.ArgClassGR, fixup.ArgClassFR, fixup.ArgClassNone, fixup.ArgClassSplit},
		Return: fixup.ArgClassGR,
	}
}

func TestSymbolCompilerGeneratedHeuristic(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"$global$", true},
		{"L$0002", true},
		{"main", false},
		{"strcmp", false},
	}
	for _, tt := range tests {
		s := &Symbol{Name: tt.name}
		if got := s.IsCompilerGenerated(); got != tt.want {
			t.Errorf("Symbol{Name: %q}.IsCompilerGenerated() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestTargetForRecognizesPARisc(t *testing.T) {
	if TargetFor(types.CPUPARisc11) == nil {
		t.Fatal("TargetFor(CPUPARisc11) = nil, want PARisc")
	}
	if TargetFor(0x9999) != nil {
		t.Fatal("TargetFor(non-PA-RISC id) should be nil")
	}
}
