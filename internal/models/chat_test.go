package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestConversationKeyOrderIndependent(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	k1 := ConversationKey(a, b)
	k2 := ConversationKey(b, a)
	if k1 != k2 {
		t.Errorf("ConversationKey is order-dependent: %s != %s", k1, k2)
	}

	lo, hi := SortParticipants(a, b)
	if want := lo.String() + "_" + hi.String(); k1 != want {
		t.Errorf("ConversationKey = %s, want %s", k1, want)
	}
}

func TestSortParticipantsStable(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	lo1, hi1 := SortParticipants(a, b)
	lo2, hi2 := SortParticipants(b, a)
	if lo1 != lo2 || hi1 != hi2 {
		t.Error("SortParticipants must return the same order for both argument orders")
	}
	if lo1.String() > hi1.String() {
		t.Error("SortParticipants returned participants out of order")
	}
}

func TestConversationParticipants(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := &Conversation{UserA: a, UserB: b}

	if got := c.OtherParticipant(a); got != b {
		t.Errorf("OtherParticipant(a) = %s, want %s", got, b)
	}
	if got := c.OtherParticipant(b); got != a {
		t.Errorf("OtherParticipant(b) = %s, want %s", got, a)
	}
	if !c.HasParticipant(a) || !c.HasParticipant(b) {
		t.Error("both users should be participants")
	}
	if c.HasParticipant(uuid.New()) {
		t.Error("unrelated user must not be a participant")
	}
}

func TestAdoptItemContextFirstReferenceWins(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	c := &Conversation{}
	if !c.AdoptItemContext(&first, "Wooden Desk") {
		t.Fatal("conversation without an item must adopt the first reference")
	}
	if c.ItemID == nil || *c.ItemID != first || c.ItemTitle != "Wooden Desk" {
		t.Errorf("adopted item = %v %q, want %s %q", c.ItemID, c.ItemTitle, first, "Wooden Desk")
	}

	if c.AdoptItemContext(&second, "Office Chair") {
		t.Error("a later item reference must not replace the first")
	}
	if *c.ItemID != first || c.ItemTitle != "Wooden Desk" {
		t.Errorf("item context changed to %v %q after second reference", c.ItemID, c.ItemTitle)
	}

	if c.AdoptItemContext(nil, "") {
		t.Error("a request without an item must not change the conversation")
	}
}
