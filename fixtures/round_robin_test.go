package fixtures

import (
	"errors"
	"fmt"
	"testing"
)

func teamNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("team-%d", i+1)
	}
	return out
}

func TestRoundRobin_EveryPairOncePerLeg(t *testing.T) {
	gen := NewRoundRobinGenerator()
	for _, n := range []int{2, 3, 4, 5, 8} {
		for _, legs := range []int{1, 2} {
			t.Run(fmt.Sprintf("%d teams %d legs", n, legs), func(t *testing.T) {
				fixtures, err := gen.Generate(teamNames(n), legs)
				if err != nil {
					t.Fatalf("Generate: %v", err)
				}
				if want := legs * n * (n - 1) / 2; len(fixtures) != want {
					t.Fatalf("fixtures = %d, want %d", len(fixtures), want)
				}

				pairs := make(map[[2]string]int)
				perRound := make(map[int]map[string]bool)
				for i, f := range fixtures {
					if f.Order != i+1 {
						t.Errorf("fixture %d has order %d", i, f.Order)
					}
					if f.Home == f.Away {
						t.Errorf("team plays itself: %+v", f)
					}
					key := [2]string{f.Home, f.Away}
					if f.Home > f.Away {
						key = [2]string{f.Away, f.Home}
					}
					pairs[key]++

					if perRound[f.Round] == nil {
						perRound[f.Round] = make(map[string]bool)
					}
					for _, team := range []string{f.Home, f.Away} {
						if perRound[f.Round][team] {
							t.Errorf("%s plays twice in round %d", team, f.Round)
						}
						perRound[f.Round][team] = true
					}
				}
				for pair, count := range pairs {
					if count != legs {
						t.Errorf("%v met %d times, want %d", pair, count, legs)
					}
				}
			})
		}
	}
}

func TestRoundRobin_SecondLegSwapsHome(t *testing.T) {
	fixtures, err := NewRoundRobinGenerator().Generate([]string{"a", "b"}, 2)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(fixtures) != 2 {
		t.Fatalf("fixtures = %+v", fixtures)
	}
	if fixtures[0].Home != fixtures[1].Away || fixtures[1].Round != 2 {
		t.Errorf("second leg = %+v", fixtures[1])
	}
}

func TestRoundRobin_Errors(t *testing.T) {
	gen := NewRoundRobinGenerator()
	if _, err := gen.Generate([]string{"a"}, 1); !errors.Is(err, ErrNotEnoughTeams) {
		t.Errorf("one team: err = %v", err)
	}
	if _, err := gen.Generate([]string{"a", "b"}, 3); !errors.Is(err, ErrInvalidLegs) {
		t.Errorf("three legs: err = %v", err)
	}
	if _, err := gen.Generate([]string{"a", "b", "a"}, 1); !errors.Is(err, ErrDuplicateTeam) {
		t.Errorf("duplicate: err = %v", err)
	}
}
