package esewa

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
)

// ErrUnparsable means no source of the callback could be decoded.
var ErrUnparsable = errors.New("esewa: callback payload could not be parsed")

// Source names where a callback payload was read from.
type Source string

const (
	SourceDataBlob Source = "data"
	SourceQuery    Source = "query"
	SourceForm     Source = "form"
	SourceJSON     Source = "json"
)

// CallbackRequest is everything the HTTP layer hands over for one callback.
type CallbackRequest struct {
	Query    url.Values
	Form     url.Values
	JSONBody []byte
}

// ParsedCallback is either Structured or RawText.
type ParsedCallback interface {
	source() Source
}

// Structured is a callback with recognisable fields.
type Structured struct {
	TransactionCode  string
	Status           string
	TotalAmount      string
	TransactionUUID  string
	ProductCode      string
	SignedFieldNames string
	Signature        string
	RefID            string
	// Fields keeps every received field verbatim for signature verification.
	Fields map[string]string
	Source Source
}

func (s *Structured) source() Source { return s.Source }

// Reference returns the gateway reference: ref_id, or transaction_code when absent.
func (s *Structured) Reference() string {
	if s.RefID != "" {
		return s.RefID
	}
	return s.TransactionCode
}

// RawText is a decoded data blob that is not JSON.
type RawText struct {
	Text   string
	Source Source
}

func (r *RawText) source() Source { return r.Source }

// SourceOf reports where a parsed callback came from.
func SourceOf(p ParsedCallback) Source {
	if p == nil {
		return ""
	}
	return p.source()
}

// wirePayload is the documented shape of the base64 data blob.
type wirePayload struct {
	TransactionCode  flexString `json:"transaction_code"`
	Status           flexString `json:"status"`
	TotalAmount      flexString `json:"total_amount"`
	TransactionUUID  flexString `json:"transaction_uuid"`
	ProductCode      flexString `json:"product_code"`
	SignedFieldNames flexString `json:"signed_field_names"`
	Signature        flexString `json:"signature"`
	RefID            flexString `json:"ref_id"`
}

// flexString accepts JSON strings and numbers and keeps the literal text,
// so "100.0" and 100.0 both sign the way the gateway sent them.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
	case len(b) > 0 && (b[0] == '{' || b[0] == '['):
		return errors.New("esewa: nested value where scalar expected")
	default:
		*f = flexString(b)
	}
	return nil
}

var knownKeys = []string{
	"transaction_code", "status", "total_amount", "transaction_uuid",
	"product_code", "signed_field_names", "signature", "ref_id",
}

// ParseCallback tries the data blob, then query parameters, then the form body,
// then a JSON body. The first source that yields a payload wins.
func ParseCallback(req CallbackRequest) (ParsedCallback, error) {
	query := NormalizeQuery(req.Query)

	blob := query.Get("data")
	if blob == "" && req.Form != nil {
		blob = req.Form.Get("data")
	}
	if blob != "" {
		return decodeBlob(blob)
	}

	if s := fromValues(query, SourceQuery); s != nil {
		return s, nil
	}
	if s := fromValues(req.Form, SourceForm); s != nil {
		return s, nil
	}
	if len(bytes.TrimSpace(req.JSONBody)) > 0 {
		if s, err := decodeJSON(req.JSONBody, SourceJSON); err == nil {
			return s, nil
		}
	}
	return nil, ErrUnparsable
}

// NormalizeQuery undoes the gateway appending "?data=..." to a success URL that
// already had a query string, which glues the blob onto the last parameter.
func NormalizeQuery(q url.Values) url.Values {
	out := url.Values{}
	for key, values := range q {
		for _, v := range values {
			if idx := strings.Index(v, "?data="); idx >= 0 {
				out.Add(key, v[:idx])
				out.Add("data", v[idx+len("?data="):])
				continue
			}
			out.Add(key, v)
		}
	}
	return out
}

func decodeBlob(blob string) (ParsedCallback, error) {
	raw, err := decodeBase64(blob)
	if err != nil {
		return nil, ErrUnparsable
	}

	if s, err := decodeJSON(raw, SourceDataBlob); err == nil {
		return s, nil
	}
	if json.Valid(raw) {
		// valid JSON but not an object of scalars
		return nil, ErrUnparsable
	}
	return &RawText{Text: strings.TrimSpace(string(raw)), Source: SourceDataBlob}, nil
}

func decodeBase64(s string) ([]byte, error) {
	// query decoding turns '+' into ' '
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "+")
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// decodeJSON decodes against the documented schema first and only falls back
// to a permissive map when the gateway adds fields the schema does not know.
func decodeJSON(raw []byte, src Source) (*Structured, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var wire wirePayload
	if err := dec.Decode(&wire); err == nil {
		s := &Structured{
			TransactionCode:  string(wire.TransactionCode),
			Status:           string(wire.Status),
			TotalAmount:      string(wire.TotalAmount),
			TransactionUUID:  string(wire.TransactionUUID),
			ProductCode:      string(wire.ProductCode),
			SignedFieldNames: string(wire.SignedFieldNames),
			Signature:        string(wire.Signature),
			RefID:            string(wire.RefID),
			Source:           src,
		}
		var present map[string]json.RawMessage
		if err := json.Unmarshal(raw, &present); err != nil {
			return nil, err
		}
		s.Fields = s.knownFields(present)
		return s, nil
	}

	var loose map[string]json.RawMessage
	if err := json.Unmarshal(raw, &loose); err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(loose))
	for k, v := range loose {
		var f flexString
		if err := f.UnmarshalJSON(v); err != nil {
			continue
		}
		fields[k] = string(f)
	}
	return fromFields(fields, src), nil
}

func fromValues(v url.Values, src Source) *Structured {
	if len(v) == 0 {
		return nil
	}
	fields := make(map[string]string, len(v))
	for k := range v {
		fields[k] = v.Get(k)
	}
	s := fromFields(fields, src)
	if s.TransactionUUID == "" && s.Status == "" && s.TransactionCode == "" {
		return nil
	}
	return s
}

func fromFields(fields map[string]string, src Source) *Structured {
	pick := func(keys ...string) string {
		for _, k := range keys {
			if v := fields[k]; v != "" {
				return v
			}
		}
		return ""
	}
	return &Structured{
		TransactionCode:  pick("transaction_code"),
		Status:           pick("status"),
		TotalAmount:      pick("total_amount"),
		TransactionUUID:  pick("transaction_uuid"),
		ProductCode:      pick("product_code"),
		SignedFieldNames: pick("signed_field_names"),
		Signature:        pick("signature"),
		RefID:            pick("ref_id", "refId", "reference_id"),
		Fields:           fields,
		Source:           src,
	}
}

// knownFields keeps every schema key the payload carried, empty values included,
// since a signed empty field still takes part in the canonical string.
func (s *Structured) knownFields(present map[string]json.RawMessage) map[string]string {
	values := []string{
		s.TransactionCode, s.Status, s.TotalAmount, s.TransactionUUID,
		s.ProductCode, s.SignedFieldNames, s.Signature, s.RefID,
	}
	fields := make(map[string]string, len(knownKeys))
	for i, k := range knownKeys {
		if _, ok := present[k]; ok || values[i] != "" {
			fields[k] = values[i]
		}
	}
	return fields
}
