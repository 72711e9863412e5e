package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestPriceDifference(t *testing.T) {
	tests := []struct {
		name string
		a, b int64
		want int64
	}{
		{"receiver more expensive", 1000, 1200, 200},
		{"proposer more expensive", 1200, 1000, 200},
		{"equal prices", 500, 500, 0},
		{"zero against value", 0, 750, 750},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PriceDifference(tt.a, tt.b); got != tt.want {
				t.Errorf("PriceDifference(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPaymentDirection(t *testing.T) {
	tests := []struct {
		name          string
		proposerPrice int64
		receiverPrice int64
		wantPayer     string
		wantAmount    int64
	}{
		{"proposer pays when receiver item costs more", 500, 800, PaymentByProposer, 300},
		{"receiver pays when proposer item costs more", 800, 500, PaymentByReceiver, 300},
		{"no payment on equal prices", 1000, 1000, PaymentByNone, 0},
		{"end-to-end scenario prices", 1000, 1200, PaymentByProposer, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payer, amount := PaymentDirection(tt.proposerPrice, tt.receiverPrice)
			if payer != tt.wantPayer || amount != tt.wantAmount {
				t.Errorf("PaymentDirection(%d, %d) = (%s, %d), want (%s, %d)",
					tt.proposerPrice, tt.receiverPrice, payer, amount, tt.wantPayer, tt.wantAmount)
			}
		})
	}
}

func TestCanTransitionExchange(t *testing.T) {
	legal := map[[2]string]bool{
		{ExchangeStatusPending, ExchangeStatusAccepted}:   true,
		{ExchangeStatusPending, ExchangeStatusDeclined}:   true,
		{ExchangeStatusPending, ExchangeStatusCancelled}:  true,
		{ExchangeStatusAccepted, ExchangeStatusCompleted}: true,
	}

	statuses := []string{
		ExchangeStatusPending, ExchangeStatusAccepted, ExchangeStatusDeclined,
		ExchangeStatusCancelled, ExchangeStatusCompleted,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := legal[[2]string{from, to}]
			if got := CanTransitionExchange(from, to); got != want {
				t.Errorf("CanTransitionExchange(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestActorMayTransitionExchange(t *testing.T) {
	proposer := uuid.New()
	receiver := uuid.New()
	stranger := uuid.New()
	e := &Exchange{ProposerID: proposer, ReceiverID: receiver}

	tests := []struct {
		name string
		user uuid.UUID
		to   string
		want bool
	}{
		{"receiver may accept", receiver, ExchangeStatusAccepted, true},
		{"proposer may not accept", proposer, ExchangeStatusAccepted, false},
		{"receiver may decline", receiver, ExchangeStatusDeclined, true},
		{"proposer may not decline", proposer, ExchangeStatusDeclined, false},
		{"proposer may cancel", proposer, ExchangeStatusCancelled, true},
		{"receiver may not cancel", receiver, ExchangeStatusCancelled, false},
		{"proposer may complete", proposer, ExchangeStatusCompleted, true},
		{"receiver may complete", receiver, ExchangeStatusCompleted, true},
		{"stranger may do nothing", stranger, ExchangeStatusAccepted, false},
		{"stranger may not complete", stranger, ExchangeStatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.ActorMayTransitionExchange(tt.user, tt.to); got != tt.want {
				t.Errorf("ActorMayTransitionExchange(%s) = %v, want %v", tt.to, got, tt.want)
			}
		})
	}
}

func TestExchangeOtherParty(t *testing.T) {
	proposer := uuid.New()
	receiver := uuid.New()
	e := &Exchange{ProposerID: proposer, ReceiverID: receiver}

	if got := e.OtherParty(proposer); got != receiver {
		t.Errorf("OtherParty(proposer) = %s, want receiver", got)
	}
	if got := e.OtherParty(receiver); got != proposer {
		t.Errorf("OtherParty(receiver) = %s, want proposer", got)
	}
	if !e.IsParty(proposer) || !e.IsParty(receiver) {
		t.Error("both sides should be parties to the exchange")
	}
	if e.IsParty(uuid.New()) {
		t.Error("a third user must not be a party to the exchange")
	}
}
