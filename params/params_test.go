package params

import (
	"errors"
	"testing"

	"github.com/pthm-cable/psyche/evolution"
)

func TestReset_RestoresEveryDefault(t *testing.T) {
	s := NewStore(Defaults())

	// Scribble over every coefficient of every group.
	for _, g := range Groups {
		names, err := Names(g)
		if err != nil {
			t.Fatalf("Names(%s): %v", g, err)
		}
		values := make(map[string]float64, len(names))
		for _, n := range names {
			values[n] = -42
		}
		if err := s.Override(g, values); err != nil {
			t.Fatalf("Override(%s): %v", g, err)
		}
	}

	s.Reset()

	want := Defaults()
	for _, g := range Groups {
		names, _ := Names(g)
		for _, n := range names {
			got, err := s.Current().Get(g, n)
			if err != nil {
				t.Fatalf("Get(%s, %s): %v", g, n, err)
			}
			expected, _ := want.Get(g, n)
			if got != expected {
				t.Errorf("%s.%s = %v after reset, want %v", g, n, got, expected)
			}
		}
	}
	if s.Current() != want {
		t.Error("current set differs from defaults after reset")
	}
}

func TestReset_Idempotent(t *testing.T) {
	s := NewStore(Defaults())
	s.Reset()
	first := s.Current()
	s.Reset()
	if s.Current() != first {
		t.Error("second reset changed the store")
	}
}

func TestDocumentedDefaults(t *testing.T) {
	d := Defaults()
	tests := []struct {
		group Group
		name  string
		want  float64
	}{
		{GroupStress, "mean", 0.2},
		{GroupStress, "sigma", 0.12},
		{GroupStress, "reversion", 1.2},
		{GroupStress, "E_weight", 1.0},
		{GroupAversion, "feedback", 6},
		{GroupAversion, "carrying_capacity", 0.2},
		{GroupAversion, "S_weight", 3},
		{GroupAversion, "T_weight", 0.1},
		{GroupAversion, "X_weight", 2},
		{GroupAversion, "I_weight", 0.5},
		{GroupAversion, "F_weight", 0.5},
		{GroupAversion, "B_weight", 0.5},
		{GroupUrge, "feedback", 5},
		{GroupUrge, "A_weight", 3},
		{GroupThought, "weight_new", 0.8},
		{GroupThought, "sig_middle", 0.4},
		{GroupThought, "sig_steepness", 100},
		{GroupBehavior, "weight_new", 0.8},
		{GroupBehavior, "sig_middle", 0.35},
		{GroupBehavior, "sig_steepness", 50},
		{GroupExternalStrategy, "feedback", 3},
		{GroupExternalStrategy, "carrying_capacity", 0.1},
		{GroupExternalStrategy, "A_weight", 0.41},
		{GroupExternalStrategy, "U_weight", 0.6},
		{GroupInternalStrategy, "feedback", 3},
		{GroupInternalStrategy, "carrying_capacity", 0.05},
		{GroupInternalStrategy, "A_weight", 0.65},
		{GroupInternalStrategy, "U_weight", 1.05},
	}

	for _, tt := range tests {
		t.Run(string(tt.group)+"."+tt.name, func(t *testing.T) {
			got, err := d.Get(tt.group, tt.name)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverride_LeavesOtherCoefficients(t *testing.T) {
	s := NewStore(Defaults())
	if err := s.Override(GroupAversion, map[string]float64{"F_weight": 2.5}); err != nil {
		t.Fatal(err)
	}

	cur := s.Current()
	if cur.Aversion.FWeight != 2.5 {
		t.Errorf("F_weight = %v, want 2.5", cur.Aversion.FWeight)
	}
	if cur.Aversion.BWeight != Defaults().Aversion.BWeight {
		t.Error("B_weight changed")
	}
	if cur.Stress != Defaults().Stress {
		t.Error("other group changed")
	}
}

func TestOverride_NotCumulativeAcrossReset(t *testing.T) {
	s := NewStore(Defaults())
	for i := 0; i < 3; i++ {
		s.Reset()
		w := s.Current().Urge.Feedback + 2
		if err := s.Override(GroupUrge, map[string]float64{"feedback": w}); err != nil {
			t.Fatal(err)
		}
	}
	if got := s.Current().Urge.Feedback; got != 7 {
		t.Errorf("feedback = %v after three reset+override cycles, want 7", got)
	}
}

func TestOverride_UnknownNames(t *testing.T) {
	s := NewStore(Defaults())

	err := s.Override("mood", map[string]float64{"x": 1})
	if !errors.Is(err, ErrUnknownGroup) {
		t.Errorf("expected ErrUnknownGroup, got %v", err)
	}

	err = s.Override(GroupStress, map[string]float64{"mean": 0.9, "bogus": 1})
	if !errors.Is(err, ErrUnknownCoefficient) {
		t.Errorf("expected ErrUnknownCoefficient, got %v", err)
	}
	if s.Current().Stress.Mean != Defaults().Stress.Mean {
		t.Error("failed override partially applied")
	}
}

func TestSnapshotFor_DecodesForEveryGroup(t *testing.T) {
	s := NewStore(Defaults())
	live := Live{S: 0.5, A: 0.39, U: 0.1, T: 0.2, X: 0.3, E: 0.05, I: 0.01, F: 0.25, B: 0.1}

	for _, g := range Groups {
		v, err := s.SnapshotFor(g, live)
		if err != nil {
			t.Fatalf("SnapshotFor(%s): %v", g, err)
		}
		var decodeErr error
		switch g {
		case GroupStress:
			_, decodeErr = evolution.DecodeStress(v)
		case GroupAversion:
			var in evolution.AversionInput
			in, decodeErr = evolution.DecodeAversion(v)
			if in.F != 0.25 || in.B != 0.1 || in.S != 0.5 {
				t.Errorf("aversion live values not merged: %+v", in)
			}
		case GroupUrge:
			_, decodeErr = evolution.DecodeUrge(v)
		case GroupThought, GroupBehavior:
			_, decodeErr = evolution.DecodeSigmoid(v)
		default:
			_, decodeErr = evolution.DecodeStrategy(v)
		}
		if decodeErr != nil {
			t.Errorf("decode %s snapshot: %v", g, decodeErr)
		}
	}

	if _, err := s.SnapshotFor("mood", live); !errors.Is(err, ErrUnknownGroup) {
		t.Errorf("expected ErrUnknownGroup, got %v", err)
	}
}

func TestProfile_VolatileBecomesDefaults(t *testing.T) {
	d, err := Volatile().Resolve(Defaults())
	if err != nil {
		t.Fatal(err)
	}
	if d.Stress.Sigma != 0.22 || d.Behavior.Middle != 0.32 {
		t.Errorf("volatile overrides not applied: %+v", d)
	}
	if d.Aversion != Defaults().Aversion {
		t.Error("volatile profile changed aversion")
	}

	s := NewStore(d)
	_ = s.Override(GroupStress, map[string]float64{"sigma": 0.9})
	s.Reset()
	if s.Current().Stress.Sigma != 0.22 {
		t.Errorf("reset restored %v, want profile sigma 0.22", s.Current().Stress.Sigma)
	}
}

func TestProfile_UnknownGroup(t *testing.T) {
	p := Profile{Name: "broken", Overrides: Overrides{"nope": {"x": 1}}}
	if _, err := p.Resolve(Defaults()); !errors.Is(err, ErrUnknownGroup) {
		t.Errorf("expected ErrUnknownGroup, got %v", err)
	}
}
