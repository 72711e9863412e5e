package models

import "testing"

func TestCanTransitionItemStatus(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{ItemStatusActive, ItemStatusSold, true},
		{ItemStatusActive, ItemStatusExchanged, true},
		{ItemStatusActive, ItemStatusActive, false},
		{ItemStatusSold, ItemStatusActive, false},
		{ItemStatusSold, ItemStatusExchanged, false},
		{ItemStatusExchanged, ItemStatusActive, false},
		{ItemStatusExchanged, ItemStatusSold, false},
	}

	for _, tt := range tests {
		if got := CanTransitionItemStatus(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransitionItemStatus(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestMatchesSearch(t *testing.T) {
	item := &Item{
		Title:       "iPhone 13 Pro",
		Description: "Lightly used, original box included",
	}

	tests := []struct {
		term string
		want bool
	}{
		{"iphone", true},
		{"IPHONE 13", true},
		{"original box", true},
		{"", true},
		{"samsung", false},
	}

	for _, tt := range tests {
		if got := item.MatchesSearch(tt.term); got != tt.want {
			t.Errorf("MatchesSearch(%q) = %v, want %v", tt.term, got, tt.want)
		}
	}
}

func TestMatchesFilter(t *testing.T) {
	item := &Item{
		Category:  "Electronics",
		Location:  "Mumbai",
		Condition: "Good",
		Price:     45000,
	}

	tests := []struct {
		name   string
		filter ItemFilter
		want   bool
	}{
		{"empty filter matches", ItemFilter{}, true},
		{"category All matches", ItemFilter{Category: "All"}, true},
		{"matching category", ItemFilter{Category: "Electronics"}, true},
		{"wrong category", ItemFilter{Category: "Books"}, false},
		{"matching location", ItemFilter{Location: "Mumbai"}, true},
		{"wrong location", ItemFilter{Location: "Delhi"}, false},
		{"wrong condition", ItemFilter{Condition: "New"}, false},
		{"inside price range", ItemFilter{MinPrice: 40000, MaxPrice: 50000}, true},
		{"below min price", ItemFilter{MinPrice: 50000}, false},
		{"above max price", ItemFilter{MaxPrice: 40000}, false},
		{"all constraints satisfied", ItemFilter{Category: "Electronics", Location: "Mumbai", Condition: "Good", MinPrice: 1000}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := item.MatchesFilter(tt.filter); got != tt.want {
				t.Errorf("MatchesFilter(%+v) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestOpenToExchange(t *testing.T) {
	tests := []struct {
		exchangeType string
		want         bool
	}{
		{"sell_only", false},
		{"open_to_exchange", true},
		{"exchange_only", true},
	}

	for _, tt := range tests {
		item := &Item{ExchangeType: tt.exchangeType}
		if got := item.OpenToExchange(); got != tt.want {
			t.Errorf("OpenToExchange() with %s = %v, want %v", tt.exchangeType, got, tt.want)
		}
	}
}
