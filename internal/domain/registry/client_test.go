package registry

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/openshr/xds-repository/internal/platform/ebxml"
)

func submitRequest() *ebxml.SubmitObjectsRequest {
	return &ebxml.SubmitObjectsRequest{
		ExtrinsicObjects: []*ebxml.ExtrinsicObject{
			{
				ID:       "Document01",
				MimeType: "text/xml",
				Classifications: []ebxml.Classification{{
					ClassificationScheme: ebxml.UUIDDocumentEntryClassCode,
					NodeRepresentation:   "History and Physical",
					Name:                 &ebxml.LocalizedString{Value: "History and Physical"},
					Slots:                []ebxml.Slot{{Name: ebxml.SlotCodingScheme, Values: []string{"Connect-a-thon classCodes"}}},
				}},
			},
		},
		RegistryPackages: []*ebxml.RegistryPackage{
			{ID: "SubmissionSet01"},
		},
	}
}

func TestSubmitStampsRepositoryUniqueID(t *testing.T) {
	var received ebxml.SubmitObjectsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := xml.Unmarshal(body, &received); err != nil {
			t.Errorf("unmarshal submitted body: %v", err)
		}
		w.Write([]byte(`<RegistryResponse status="` + ebxml.StatusSuccess + `"/>`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "1.19.6.24.109.42.1.5", time.Second, zerolog.Nop())
	resp, err := c.Submit(context.Background(), submitRequest())
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if !resp.Success() {
		t.Errorf("status = %q, want success", resp.Status)
	}

	if len(received.ExtrinsicObjects) != 1 {
		t.Fatalf("registry received %d extrinsic objects", len(received.ExtrinsicObjects))
	}
	got := ebxml.SlotValue(received.ExtrinsicObjects[0].Slots, ebxml.SlotRepositoryUniqueID, "")
	if got != "1.19.6.24.109.42.1.5" {
		t.Errorf("repositoryUniqueId slot = %q", got)
	}
	cc := received.ExtrinsicObjects[0].Classification(ebxml.UUIDDocumentEntryClassCode)
	if cc == nil || cc.NodeRepresentation != "History and Physical" {
		t.Errorf("classCode classification lost on the wire: %+v", cc)
	}
}

func TestSubmitKeepsExistingRepositoryUniqueID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<RegistryResponse status="` + ebxml.StatusSuccess + `"/>`))
	}))
	defer srv.Close()

	req := submitRequest()
	req.ExtrinsicObjects[0].AddSlot(ebxml.SlotRepositoryUniqueID, "9.9.9")

	c := NewHTTPClient(srv.URL, "1.19.6.24.109.42.1.5", time.Second, zerolog.Nop())
	if _, err := c.Submit(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	values := ebxml.SlotValues(req.ExtrinsicObjects[0].Slots, ebxml.SlotRepositoryUniqueID)
	if len(values) != 1 || values[0] != "9.9.9" {
		t.Errorf("repositoryUniqueId values = %v, want the original kept", values)
	}
}

func TestSubmitReturnsRejectionWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<RegistryResponse status="` + ebxml.StatusFailure + `">` +
			`<RegistryErrorList><RegistryError errorCode="XDSRegistryMetadataError" codeContext="bad patient id" severity="` +
			ebxml.SeverityError + `"/></RegistryErrorList></RegistryResponse>`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "1.19.6.24.109.42.1.5", time.Second, zerolog.Nop())
	resp, err := c.Submit(context.Background(), submitRequest())
	if err != nil {
		t.Fatalf("explicit rejection must not be an error, got %v", err)
	}
	if resp.Success() {
		t.Fatal("expected failure status")
	}
	if len(resp.Errors) != 1 || resp.Errors[0].ErrorCode != "XDSRegistryMetadataError" {
		t.Errorf("errors = %+v", resp.Errors)
	}
}

func TestSubmitTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewHTTPClient(srv.URL, "1.19.6.24.109.42.1.5", time.Second, zerolog.Nop())
	_, err := c.Submit(context.Background(), submitRequest())
	if !errors.Is(err, ErrRegistryUnavailable) {
		t.Fatalf("err = %v, want ErrRegistryUnavailable", err)
	}
}

func TestSubmitBadStatusIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "1.19.6.24.109.42.1.5", time.Second, zerolog.Nop())
	_, err := c.Submit(context.Background(), submitRequest())
	if !errors.Is(err, ErrRegistryUnavailable) {
		t.Fatalf("err = %v, want ErrRegistryUnavailable", err)
	}
}
