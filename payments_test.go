package pay2house

import (
	"context"
	"testing"
)

func validPaymentRequest() CreatePaymentRequest {
	return CreatePaymentRequest{
		ExternalNumber: "ORDER-1",
		Amount:         10.5,
		CurrencyCode:   "USD",
		MerchantID:     "M-1",
		Description:    "Order #1",
		ReturnURL:      "https://shop.example/return",
		CancelURL:      "https://shop.example/cancel",
	}
}

func TestCreatePaymentRequestValidate(t *testing.T) {
	t.Parallel()

	email := "not-an-email"
	tests := map[string]struct {
		mutate func(*CreatePaymentRequest)
		want   string
	}{
		"missing external number": {
			mutate: func(r *CreatePaymentRequest) { r.ExternalNumber = "" },
			want:   "external_number is required",
		},
		"zero amount": {
			mutate: func(r *CreatePaymentRequest) { r.Amount = 0 },
			want:   "amount must be greater than 0",
		},
		"short deadline": {
			mutate: func(r *CreatePaymentRequest) { r.DeadlineSeconds = 30 },
			want:   "deadline_seconds must be at least 60",
		},
		"bad return url": {
			mutate: func(r *CreatePaymentRequest) { r.ReturnURL = "nope" },
			want:   "return_url must be a valid URL",
		},
		"bad email": {
			mutate: func(r *CreatePaymentRequest) { r.PayerEmail = &email },
			want:   "payer_email must be a valid email",
		},
		"unknown method": {
			mutate: func(r *CreatePaymentRequest) { r.PaymentMethod = "BANK" },
			want:   "payment_method must be one of [ALL, PAY2_HOUSE, USDT_TRC20, CARDS]",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			req := validPaymentRequest()
			tc.mutate(&req)
			err := req.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if err.Error() != tc.want {
				t.Fatalf("expected %q got %q", tc.want, err.Error())
			}
		})
	}

	if err := validPaymentRequest().Validate(); err != nil {
		t.Fatalf("expected valid request got %v", err)
	}
}

func TestCreatePaymentRequestParams(t *testing.T) {
	t.Parallel()

	params := validPaymentRequest().Params()
	if params["deadline_seconds"] != DefaultDeadlineSeconds {
		t.Fatalf("expected default deadline got %v", params["deadline_seconds"])
	}
	if params["payment_method"] != string(PaymentMethodAll) {
		t.Fatalf("expected default payment method got %v", params["payment_method"])
	}
	if _, ok := params["handling_fee"]; ok {
		t.Fatalf("expected handling_fee to be omitted")
	}
	if _, ok := params["payer_email"]; ok {
		t.Fatalf("expected payer_email to be omitted")
	}

	fee := 0.0
	req := validPaymentRequest()
	req.HandlingFee = &fee
	if got, ok := req.Params()["handling_fee"]; !ok || got != 0.0 {
		t.Fatalf("expected zero handling_fee to be sent got %v", got)
	}
}

func TestClientCreatePayment(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, func(endpoint string, form map[string]string) string {
		if endpoint != "create_payment" {
			t.Errorf("unexpected endpoint %q", endpoint)
		}
		if form["deadline_seconds"] != "600" || form["payment_method"] != "ALL" || form["amount"] != "10.5" {
			t.Errorf("unexpected form %v", form)
		}
		return `{"status":"success","code":"OK","invoice_number":"INV-1","approval_url":"https://pay2.house/pay/INV-1"}`
	})

	resp, err := srv.client().CreatePayment(context.Background(), validPaymentRequest())
	if err != nil {
		t.Fatalf("CreatePayment() error = %v", err)
	}
	if resp.InvoiceNumber != "INV-1" {
		t.Fatalf("unexpected invoice number %q", resp.InvoiceNumber)
	}
	if resp.ApprovalURL != "https://pay2.house/pay/INV-1" {
		t.Fatalf("unexpected approval url %q", resp.ApprovalURL)
	}
}

func TestClientCreatePaymentRejectsInvalidRequest(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, func(string, map[string]string) string { return `{"status":"success"}` })
	req := validPaymentRequest()
	req.CurrencyCode = ""

	if _, err := srv.client().CreatePayment(context.Background(), req); err == nil {
		t.Fatalf("expected validation error")
	}
	if n := srv.calls.Load(); n != 0 {
		t.Fatalf("expected no API call got %d", n)
	}
}

func TestClientCreatePaymentMissingField(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, func(string, map[string]string) string {
		return `{"status":"success","invoice_number":"INV-1"}`
	})
	_, err := srv.client().CreatePayment(context.Background(), validPaymentRequest())
	if !IsKind(err, KindMalformedResponse) {
		t.Fatalf("expected malformed response error got %v", err)
	}
}

func TestClientGetPaymentDetails(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, func(endpoint string, form map[string]string) string {
		if endpoint != "show_payment_details" {
			t.Errorf("unexpected endpoint %q", endpoint)
		}
		if form["merchant_id"] != "M-1" || form["invoice_number"] != "INV-1" {
			t.Errorf("unexpected form %v", form)
		}
		return `{"status":"success","invoice_number":"INV-1","currency_code":"USD","amount":"10.50","handling_fee":0.25,"payment_status":"paid"}`
	})

	details, err := srv.client().GetPaymentDetails(context.Background(), PaymentDetailsRequest{MerchantID: "M-1", InvoiceNumber: "INV-1"})
	if err != nil {
		t.Fatalf("GetPaymentDetails() error = %v", err)
	}
	if details.Amount != 10.5 {
		t.Fatalf("expected amount 10.5 got %v", details.Amount)
	}
	if details.TotalAmount() != 10.75 {
		t.Fatalf("expected total 10.75 got %v", details.TotalAmount())
	}
	if !details.IsPaid() || details.IsPending() || details.IsCancelled() {
		t.Fatalf("unexpected status helpers for %s", details.PaymentStatus)
	}
}

func TestPaymentDetailsStatusHelpers(t *testing.T) {
	t.Parallel()

	tests := map[PaymentStatus]struct{ paid, pending, cancelled bool }{
		PaymentStatusPaid:      {paid: true},
		PaymentStatusPending:   {pending: true},
		PaymentStatusCancelled: {cancelled: true},
		PaymentStatusOverdue:   {cancelled: true},
	}
	for status, want := range tests {
		d := PaymentDetailsResponse{PaymentStatus: status}
		if d.IsPaid() != want.paid || d.IsPending() != want.pending || d.IsCancelled() != want.cancelled {
			t.Fatalf("unexpected helpers for %s", status)
		}
	}
}

func TestClientIsPaymentPaid(t *testing.T) {
	t.Parallel()

	srv := newAPIServer(t, func(string, map[string]string) string {
		return `{"status":"success","invoice_number":"INV-2","currency_code":"EUR","amount":5,"payment_status":"pending"}`
	})
	paid, err := srv.client().IsPaymentPaid(context.Background(), "M-1", "INV-2")
	if err != nil {
		t.Fatalf("IsPaymentPaid() error = %v", err)
	}
	if paid {
		t.Fatalf("expected pending invoice to be unpaid")
	}

	if _, err := srv.client().IsPaymentPaid(context.Background(), "", "INV-2"); err == nil {
		t.Fatalf("expected validation error for empty merchant id")
	}
}
