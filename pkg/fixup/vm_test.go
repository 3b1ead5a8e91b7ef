package fixup

import "testing"

func TestStateNamedVariables(t *testing.T) {
	s := NewState()
	s.SetL(1)
	s.SetD(2)
	s.SetN(3)
	s.SetO(4)
	s.SetR(5)
	s.SetSVar(6)
	s.SetT(7)
	s.SetU(8)
	s.SetV(9)

	got := []int64{s.L(), s.D(), s.N(), s.O(), s.R(), s.SVar(), s.T(), s.U(), s.V()}
	want := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("variable %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestStateResetClearsEverything(t *testing.T) {
	s := NewState()
	s.SetL(42)
	s.Push(1)
	s.Queue.Insert([]byte{1, 2, 3})
	s.callMode = CallModeLongPcrel

	s.Reset()

	if s.L() != 0 {
		t.Errorf("L() after Reset() = %d, want 0", s.L())
	}
	if s.StackLen() != 0 {
		t.Errorf("StackLen() after Reset() = %d, want 0", s.StackLen())
	}
	if _, ok := s.Queue.Find([]byte{1, 2, 3}); ok {
		t.Error("Queue still holds an entry after Reset()")
	}
	if s.callMode != CallModeDefault {
		t.Errorf("callMode after Reset() = %v, want CallModeDefault", s.callMode)
	}
}

func TestApplyArithmetic(t *testing.T) {
	tests := []struct {
		name string
		ops  []ExprOp
		push []int64
		want int64
	}{
		{"add", []ExprOp{ExprOpAdd}, []int64{3, 4}, 7},
		{"sub order", []ExprOp{ExprOpSub}, []int64{10, 3}, 7},
		{"mul", []ExprOp{ExprOpMul}, []int64{6, 7}, 42},
		{"div", []ExprOp{ExprOpDiv}, []int64{20, 4}, 5},
		{"neg", []ExprOp{ExprOpNeg}, []int64{5}, -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			for _, v := range tt.push {
				s.Push(v)
			}
			for _, op := range tt.ops {
				s.Apply(op)
			}
			if got := s.Pop(); got != tt.want {
				t.Errorf("result = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestApplyDivByZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on division by zero")
		}
	}()
	s := NewState()
	s.Push(1)
	s.Push(0)
	s.Apply(ExprOpDiv)
}

func TestPushOverflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on stack overflow")
		}
	}()
	s := NewState()
	for i := 0; i <= maxStack; i++ {
		s.Push(int64(i))
	}
}
