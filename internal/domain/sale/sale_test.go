package sale

import "testing"

func TestCreateRequest_Validate(t *testing.T) {
	base := func() CreateRequest {
		return CreateRequest{ClientID: "c1", VehicleID: "v1", SaleValue: 50000, DownPayment: 10000}
	}
	tests := []struct {
		name    string
		mutate  func(*CreateRequest)
		wantErr bool
	}{
		{name: "valid", mutate: func(*CreateRequest) {}},
		{name: "missing vehicle", mutate: func(r *CreateRequest) { r.VehicleID = "" }, wantErr: true},
		{name: "missing client", mutate: func(r *CreateRequest) { r.ClientID = "" }, wantErr: true},
		{name: "zero value", mutate: func(r *CreateRequest) { r.SaleValue = 0 }, wantErr: true},
		{name: "down payment too large", mutate: func(r *CreateRequest) { r.DownPayment = 60000 }, wantErr: true},
		{name: "trade in without vehicle", mutate: func(r *CreateRequest) { r.OperationKind = OperationTradeIn }, wantErr: true},
		{name: "trade in for itself", mutate: func(r *CreateRequest) {
			r.OperationKind = OperationTradeIn
			r.TradeInVehicleID = "v1"
		}, wantErr: true},
		{name: "trade in", mutate: func(r *CreateRequest) {
			r.OperationKind = OperationTradeIn
			r.TradeInVehicleID = "v2"
		}},
		{name: "unknown kind", mutate: func(r *CreateRequest) { r.OperationKind = "gift" }, wantErr: true},
		{name: "bad date", mutate: func(r *CreateRequest) { r.SoldAt = "2024/01/01" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.mutate(&r)
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateRequest_Defaults(t *testing.T) {
	r := CreateRequest{ClientID: "c1", VehicleID: "v1", SaleValue: 100, DownPayment: 40}
	if err := r.Validate(); err != nil {
		t.Fatal(err)
	}
	if r.OperationKind != OperationSale {
		t.Errorf("operation kind = %q", r.OperationKind)
	}
	if r.SoldAt == "" {
		t.Error("sold_at should default to today")
	}
	if r.Financed() != 60 {
		t.Errorf("financed = %v", r.Financed())
	}
}
