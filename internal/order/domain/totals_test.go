package domain

import (
	"errors"
	"testing"
)

func TestComputeTotal(t *testing.T) {
	cases := []struct {
		name  string
		lines []OrderLine
		want  float64
	}{
		{
			name: "empty",
			want: 0,
		},
		{
			name: "single line",
			lines: []OrderLine{
				{Quantity: 2, Price: 1.25},
			},
			want: 2.5,
		},
		{
			name: "multiple lines",
			lines: []OrderLine{
				{Quantity: 2, Price: 1.25},
				{Quantity: 1, Price: 0.25},
			},
			want: 2.75,
		},
		{
			name: "rounded to cents",
			lines: []OrderLine{
				{Quantity: 3, Price: 1.111},
			},
			want: 3.33,
		},
		{
			name: "free line",
			lines: []OrderLine{
				{Quantity: 5, Price: 0},
			},
			want: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ComputeTotal(tc.lines); got != tc.want {
				t.Fatalf("ComputeTotal() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidateLine(t *testing.T) {
	if err := ValidateLine(CreateLineRequest{ProductID: 1, Quantity: 1, Price: 0}); err != nil {
		t.Fatalf("valid line rejected: %v", err)
	}
	if err := ValidateLine(CreateLineRequest{Quantity: 1, Price: 1}); !errors.Is(err, ErrInvalidProduct) {
		t.Fatalf("missing product: got %v, want %v", err, ErrInvalidProduct)
	}
	if err := ValidateLine(CreateLineRequest{ProductID: 1, Quantity: 0, Price: 1}); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("zero quantity: got %v, want %v", err, ErrInvalidQuantity)
	}
	if err := ValidateLine(CreateLineRequest{ProductID: 1, Quantity: -3, Price: 1}); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("negative quantity: got %v, want %v", err, ErrInvalidQuantity)
	}
	if err := ValidateLine(CreateLineRequest{ProductID: 1, Quantity: 1, Price: -0.01}); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("negative price: got %v, want %v", err, ErrInvalidPrice)
	}
}

func TestRelationshipGuard(t *testing.T) {
	order := &Order{ID: 1, Name: "SO001"}

	if _, err := order.Lines(); !errors.Is(err, ErrLinesNotLoaded) {
		t.Fatalf("Lines() before load: got %v, want %v", err, ErrLinesNotLoaded)
	}
	if _, err := order.Tags(); !errors.Is(err, ErrTagsNotLoaded) {
		t.Fatalf("Tags() before load: got %v, want %v", err, ErrTagsNotLoaded)
	}
	if _, err := order.View(); !errors.Is(err, ErrLinesNotLoaded) {
		t.Fatalf("View() before load: got %v, want %v", err, ErrLinesNotLoaded)
	}
	if order.Hydrated() {
		t.Fatal("Hydrated() true before load")
	}

	order.AttachLines([]OrderLine{{OrderID: 1, Quantity: 2, Price: 1.25}})
	if _, err := order.View(); !errors.Is(err, ErrTagsNotLoaded) {
		t.Fatalf("View() with only lines: got %v, want %v", err, ErrTagsNotLoaded)
	}

	order.AttachTags(nil)
	if !order.Hydrated() {
		t.Fatal("Hydrated() false after both loads")
	}

	view, err := order.View()
	if err != nil {
		t.Fatalf("View() after load: %v", err)
	}
	if view.AmountTotal != 2.5 {
		t.Fatalf("AmountTotal = %v, want 2.5", view.AmountTotal)
	}
	if view.Tags == nil || len(view.Tags) != 0 {
		t.Fatalf("Tags = %v, want empty slice", view.Tags)
	}
}

func TestViewRecomputesStaleTotal(t *testing.T) {
	order := &Order{ID: 7, Name: "SO002", AmountTotal: 99.99}
	order.AttachLines([]OrderLine{{OrderID: 7, Quantity: 1, Price: 0.25}})
	order.AttachTags(nil)

	view, err := order.View()
	if err != nil {
		t.Fatalf("View(): %v", err)
	}
	if view.AmountTotal != 0.25 {
		t.Fatalf("AmountTotal = %v, want recomputed 0.25", view.AmountTotal)
	}
}
