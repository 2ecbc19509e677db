package gossip

import "testing"

func TestBudget_AllowsWithinBurst(t *testing.T) {
	b := NewBudget(100, 100)
	if !b.Allow(60, 1) {
		t.Fatal("expected 60 bytes allowed within 100 burst")
	}
	if b.Allow(60, 1) {
		t.Fatal("expected second 60 bytes rejected in the same turn")
	}
}

func TestBudget_RefillsPerTurn(t *testing.T) {
	b := NewBudget(50, 100)
	if !b.Allow(100, 1) {
		t.Fatal("expected full burst allowed")
	}
	if b.Allow(1, 1) {
		t.Fatal("expected empty bucket")
	}
	if !b.Allow(50, 2) {
		t.Fatal("expected one turn of refill")
	}
	if !b.Allow(100, 10) {
		t.Fatal("expected refill capped at burst")
	}
	if b.Allow(1, 10) {
		t.Fatal("expected refill not to exceed burst")
	}
}

func TestBudget_PastTurnsDoNotRefill(t *testing.T) {
	b := NewBudget(100, 100)
	b.Allow(100, 5)
	if b.Allow(10, 3) {
		t.Fatal("expected an older turn not to refill")
	}
}

func TestBudget_BurstDefaultsToRate(t *testing.T) {
	b := NewBudget(10, 0)
	if b.Allow(11, 1) {
		t.Fatal("expected burst equal to rate")
	}
}

func TestCoalescer_KeepsLatestPerPeer(t *testing.T) {
	c := NewCoalescer()
	for i := 0; i < 3; i++ {
		c.Add(Peer{ID: "a", Faction: "red", Payload: []byte{byte(i)}})
	}

	peers := c.Drain()
	if len(peers) != 1 {
		t.Fatalf("expected 1 coalesced payload, got %d", len(peers))
	}
	if peers[0].Payload[0] != 2 {
		t.Fatalf("expected latest payload, got %v", peers[0].Payload)
	}
	if c.Len() != 0 {
		t.Fatal("expected drain to clear the queue")
	}
}

func TestCoalescer_DrainsInIDOrder(t *testing.T) {
	c := NewCoalescer()
	for _, id := range []string{"c", "a", "b"} {
		c.Add(Peer{ID: id})
	}

	peers := c.Peers()
	if c.Len() != 3 {
		t.Fatal("expected Peers not to clear the queue")
	}
	for i, want := range []string{"a", "b", "c"} {
		if peers[i].ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, peers[i].ID)
		}
	}
	if p, ok := c.Get("b"); !ok || p.ID != "b" {
		t.Fatal("expected b queued")
	}
	if _, ok := c.Get("z"); ok {
		t.Fatal("expected z missing")
	}
}
