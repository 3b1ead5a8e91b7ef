package fixup

import "testing"

func TestQueueInsertAndFind(t *testing.T) {
	tests := []struct {
		name   string
		insert [][]byte
		find   []byte
		wantOK bool
		wantAt int
	}{
		{
			name:   "empty queue misses",
			insert: nil,
			find:   []byte{1, 2},
			wantOK: false,
		},
		{
			name:   "most recent insert is slot 0",
			insert: [][]byte{{1, 2}},
			find:   []byte{1, 2},
			wantOK: true,
			wantAt: 0,
		},
		{
			name:   "older insert slides to slot 1",
			insert: [][]byte{{9, 9}, {1, 2}},
			find:   []byte{9, 9},
			wantOK: true,
			wantAt: 1,
		},
		{
			name:   "different length never matches",
			insert: [][]byte{{1, 2, 3}},
			find:   []byte{1, 2},
			wantOK: false,
		},
		{
			name:   "fifth insert evicts the first",
			insert: [][]byte{{0}, {1}, {2}, {3}, {4}},
			find:   []byte{0},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQueue()
			for _, b := range tt.insert {
				q.Insert(b)
			}
			idx, ok := q.Find(tt.find)
			if ok != tt.wantOK {
				t.Fatalf("Find() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && idx != tt.wantAt {
				t.Fatalf("Find() idx = %d, want %d", idx, tt.wantAt)
			}
		})
	}
}

func TestQueuePromote(t *testing.T) {
	q := NewQueue()
	q.Insert([]byte{3})
	q.Insert([]byte{2})
	q.Insert([]byte{1})
	q.Insert([]byte{0}) // slots: [0] [1] [2] [3]

	q.Promote(2) // bring {2} to the front

	if got := q.At(0); len(got) != 1 || got[0] != 2 {
		t.Fatalf("slot 0 after Promote(2) = %v, want [2]", got)
	}
	if got := q.At(1); len(got) != 1 || got[0] != 0 {
		t.Fatalf("slot 1 after Promote(2) = %v, want [0]", got)
	}
	if got := q.At(2); len(got) != 1 || got[0] != 1 {
		t.Fatalf("slot 2 after Promote(2) = %v, want [1]", got)
	}
}

func TestQueuePromoteOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range Promote index")
		}
	}()
	NewQueue().Promote(7)
}

func TestQueueInit(t *testing.T) {
	q := NewQueue()
	q.Insert([]byte{1, 2})
	q.Init()
	if _, ok := q.Find([]byte{1, 2}); ok {
		t.Fatal("Find() succeeded after Init(), want empty queue")
	}
}
