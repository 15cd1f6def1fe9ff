// Package backup defines the JSON records of an SMS/MMS backup file.
//
// A backup is a JSON array of objects. Each object carries an "sms" and/or
// an "mms" field whose value is an array of records:
//
//	[
//	  {"sms": [{"address": "+15550100", "body": "hi", "date": 1700000000000, "type": 1}]},
//	  {"mms": [{"date": 1700000001, "msg_box": 2, "parts": [...], "addresses": [...]}]}
//	]
//
// SMS dates are unix milliseconds; MMS dates are unix seconds, as on Android.
package backup

import (
	"errors"
	"strings"
)

// Section names used as field keys in a backup object.
const (
	SectionSMS = "sms"
	SectionMMS = "mms"
)

// MMS address types (PduHeaders).
const (
	AddrTypeBCC  = 129
	AddrTypeCC   = 130
	AddrTypeFrom = 137
	AddrTypeTo   = 151
)

// Message boxes shared by SMS "type" and MMS "msg_box".
const (
	BoxInbox  = 1
	BoxSent   = 2
	BoxDraft  = 3
	BoxOutbox = 4
	BoxFailed = 5
	BoxQueued = 6
)

var (
	ErrMissingAddress = errors.New("backup: sms record has no address")
	ErrNoAddresses    = errors.New("backup: mms record has no addresses")
	ErrMissingDate    = errors.New("backup: record has no date")
)

// SmsBackup is one text message.
type SmsBackup struct {
	SubscriptionID int    `json:"sub_id"`
	Address        string `json:"address"`
	Body           string `json:"body"`
	Date           int64  `json:"date"`
	DateSent       int64  `json:"date_sent"`
	Locked         int    `json:"locked"`
	Protocol       string `json:"protocol,omitempty"`
	Read           int    `json:"read"`
	Status         int    `json:"status"`
	Type           int    `json:"type"`
	ServiceCenter  string `json:"service_center,omitempty"`
}

// Validate reports records that cannot be placed in a thread.
func (s *SmsBackup) Validate() error {
	if strings.TrimSpace(s.Address) == "" {
		return ErrMissingAddress
	}
	if s.Date <= 0 {
		return ErrMissingDate
	}
	return nil
}

// MmsBackup is one multimedia message with its parts and addresses.
type MmsBackup struct {
	Creator        string       `json:"creator,omitempty"`
	ContentType    string       `json:"ct_t"`
	DeliveryReport int          `json:"d_rpt"`
	Date           int64        `json:"date"`
	DateSent       int64        `json:"date_sent"`
	Locked         int          `json:"locked"`
	MessageType    int          `json:"m_type"`
	MessageBox     int          `json:"msg_box"`
	Read           int          `json:"read"`
	ReadReport     int          `json:"rr"`
	Seen           int          `json:"seen"`
	TextOnly       int          `json:"text_only"`
	Status         *int         `json:"st,omitempty"`
	Subject        string       `json:"sub,omitempty"`
	SubjectCharset int          `json:"sub_cs"`
	SubscriptionID int          `json:"sub_id"`
	TransactionID  string       `json:"tr_id,omitempty"`
	MessageID      string       `json:"m_id,omitempty"`
	Parts          []MmsPart    `json:"parts"`
	Addresses      []MmsAddress `json:"addresses"`
}

// Validate reports records that cannot be placed in a thread.
func (m *MmsBackup) Validate() error {
	for _, a := range m.Addresses {
		if strings.TrimSpace(a.Address) != "" {
			if m.Date <= 0 {
				return ErrMissingDate
			}
			return nil
		}
	}
	return ErrNoAddresses
}

// Recipients returns the addresses that identify the MMS thread: every
// address except the local user's. For received messages the local user
// is a "to" address; for sent messages it is the "from" address.
func (m *MmsBackup) Recipients() []string {
	var out []string
	for _, a := range m.Addresses {
		addr := strings.TrimSpace(a.Address)
		if addr == "" || isPlaceholder(addr) {
			continue
		}
		if m.MessageBox != BoxInbox && a.Type == AddrTypeFrom {
			continue
		}
		out = append(out, addr)
	}
	return out
}

// Sender returns the "from" address, or "" if none is present.
func (m *MmsBackup) Sender() string {
	for _, a := range m.Addresses {
		if a.Type == AddrTypeFrom && !isPlaceholder(a.Address) {
			return strings.TrimSpace(a.Address)
		}
	}
	return ""
}

// isPlaceholder reports the token Android stores in place of the local number.
func isPlaceholder(addr string) bool {
	return strings.EqualFold(strings.TrimSpace(addr), "insert-address-token")
}

// Text joins the text/plain parts of the message.
func (m *MmsBackup) Text() string {
	var texts []string
	for _, p := range m.Parts {
		if p.ContentType == "text/plain" && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// MmsPart is one MMS body part. Data holds base64 of binary content.
type MmsPart struct {
	ContentDisposition string `json:"cd,omitempty"`
	Charset            string `json:"chset,omitempty"`
	ContentID          string `json:"cid,omitempty"`
	ContentLocation    string `json:"cl,omitempty"`
	ContentType        string `json:"ct"`
	CTStart            string `json:"ctt_s,omitempty"`
	CTType             string `json:"ctt_t,omitempty"`
	Filename           string `json:"fn,omitempty"`
	Name               string `json:"name,omitempty"`
	Seq                int    `json:"seq"`
	Text               string `json:"text,omitempty"`
	Data               string `json:"data,omitempty"`
}

// MmsAddress is an MMS originator or recipient.
type MmsAddress struct {
	Address string `json:"address"`
	Type    int    `json:"type"`
	Charset int    `json:"charset"`
}
