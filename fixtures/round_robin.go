package fixtures

import "sort"

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() Generator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// Generate pairs every team with every other team once per leg, using the circle method so that
// no team plays twice on the same matchday. With an odd number of teams one team rests each round.
// The second leg repeats the first with home and away swapped.
func (g *RoundRobinGenerator) Generate(teams []string, legs int) ([]Fixture, error) {
	if legs != 1 && legs != 2 {
		return nil, ErrInvalidLegs
	}
	if len(teams) < 2 {
		return nil, ErrNotEnoughTeams
	}
	seen := make(map[string]struct{}, len(teams))
	for _, t := range teams {
		if _, dup := seen[t]; dup {
			return nil, ErrDuplicateTeam
		}
		seen[t] = struct{}{}
	}

	// Пустая строка - "bye", команда отдыхает
	slots := append([]string(nil), teams...)
	if len(slots)%2 == 1 {
		slots = append(slots, "")
	}
	n := len(slots)
	rounds := n - 1

	fixtures := make([]Fixture, 0, legs*len(teams)*(len(teams)-1)/2)
	for round := 0; round < rounds; round++ {
		for i := 0; i < n/2; i++ {
			home, away := slots[i], slots[n-1-i]
			if home == "" || away == "" {
				continue
			}
			// Чередуем хозяев, иначе первая команда всегда дома
			if round%2 == 1 && i == 0 {
				home, away = away, home
			}
			fixtures = append(fixtures, Fixture{Round: round + 1, Home: home, Away: away})
		}
		// Первый слот фиксирован, остальные сдвигаются по кругу
		last := slots[n-1]
		copy(slots[2:], slots[1:n-1])
		slots[1] = last
	}

	if legs == 2 {
		firstLeg := len(fixtures)
		for _, f := range fixtures[:firstLeg] {
			fixtures = append(fixtures, Fixture{Round: f.Round + rounds, Home: f.Away, Away: f.Home})
		}
	}

	sort.SliceStable(fixtures, func(i, j int) bool {
		return fixtures[i].Round < fixtures[j].Round
	})
	for i := range fixtures {
		fixtures[i].Order = i + 1
	}
	return fixtures, nil
}
