package game

import "testing"

func countTypes(monsters []CreatureType) map[CreatureType]int {
	counts := make(map[CreatureType]int)
	for _, typ := range monsters {
		counts[typ]++
	}
	return counts
}

func TestWaveCompositionTable(t *testing.T) {
	wave1 := countTypes(WaveComposition(1))
	if wave1[CreatureZombie] != 8 || len(wave1) != 1 {
		t.Errorf("wave 1 is 8 zombies, got %v", wave1)
	}

	wave2 := countTypes(WaveComposition(2))
	if wave2[CreatureZombie] != 12 || len(wave2) != 1 {
		t.Errorf("wave 2 is 12 zombies, got %v", wave2)
	}

	wave6 := countTypes(WaveComposition(6))
	if wave6[CreatureTroll] != 1 {
		t.Errorf("wave 6 introduces a troll, got %v", wave6)
	}
}

func TestWaveCompositionParametric(t *testing.T) {
	// Beyond the fixed table every creature type appears and counts keep
	// growing with the wave number
	high := countTypes(WaveComposition(20))
	for _, typ := range []CreatureType{
		CreatureZombie, CreatureYmp, CreatureWorm,
		CreatureXiangliu, CreatureTroll, CreatureVargr,
	} {
		if high[typ] == 0 {
			t.Errorf("wave 20 should contain %s", typ)
		}
	}

	if len(WaveComposition(30)) <= len(WaveComposition(15)) {
		t.Error("later waves must be larger")
	}
}

func TestWaveZeroFallback(t *testing.T) {
	if len(WaveComposition(0)) == 0 {
		t.Error("wave 0 exists only as a fallback but must not be empty")
	}
}
