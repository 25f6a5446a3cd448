package entry

import "testing"

func TestInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		in      Input
		wantErr bool
	}{
		{name: "expense default", in: Input{Description: "Polishing", Amount: 150}},
		{name: "revenue", in: Input{Description: "Warranty", Amount: 300, Kind: KindRevenue, Date: "2024-03-01"}},
		{name: "missing description", in: Input{Amount: 10}, wantErr: true},
		{name: "zero amount", in: Input{Description: "x"}, wantErr: true},
		{name: "bad kind", in: Input{Description: "x", Amount: 1, Kind: "refund"}, wantErr: true},
		{name: "bad date", in: Input{Description: "x", Amount: 1, Date: "March"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTotals(t *testing.T) {
	exp, rev := Totals([]Entry{
		{Kind: KindExpense, Amount: 100},
		{Kind: KindExpense, Amount: 50.5},
		{Kind: KindRevenue, Amount: 20},
	})
	if exp != 150.5 || rev != 20 {
		t.Fatalf("Totals() = %v, %v", exp, rev)
	}
}
