package store

// Message kinds.
const (
	KindSMS = "sms"
	KindMMS = "mms"
)

// Conversation is a thread of messages exchanged with one recipient set.
type Conversation struct {
	ThreadID   int64
	Recipients string // sorted, comma-joined normalized addresses
	Title      string
	Snippet    string
	Date       int64 // unix ms of the newest message
	Read       bool
	IsGroup    bool
	Archived   bool
}

// Message is a stored SMS or MMS. Dates are unix milliseconds for both kinds.
type Message struct {
	ID             int64
	ThreadID       int64
	Kind           string
	ContentKey     string
	Address        string
	Body           string
	Subject        string
	SubjectCharset int
	Box            int // 1 inbox, 2 sent, 3 draft, 4 outbox, 5 failed, 6 queued
	Date           int64
	DateSent       int64
	Read           bool
	Seen           bool
	Locked         bool
	Status         int
	SubscriptionID int
	Protocol       string
	ServiceCenter  string

	// MMS headers.
	Creator        string
	ContentType    string
	DeliveryReport int
	ReadReport     int
	MessageType    int
	TextOnly       bool
	TransactionID  string
	MessageID      string

	Parts     []Part
	Addresses []Address
}

// Part is one MMS body part.
type Part struct {
	Seq                int
	ContentType        string
	Name               string
	Filename           string
	Charset            string
	ContentDisposition string
	ContentID          string
	ContentLocation    string
	CTStart            string
	CTType             string
	Text               string
	Data               []byte
}

// Address is an MMS originator or recipient (type 137 from, 151 to, 130 cc, 129 bcc).
type Address struct {
	Address string
	Type    int
	Charset int
}

// SearchResult holds a message with a search snippet.
type SearchResult struct {
	Message Message
	Snippet string
}

// ImportRun records one execution of the backup importer.
type ImportRun struct {
	ID         string
	Source     string
	Result     string
	Imported   int
	Failed     int
	StartedAt  int64
	FinishedAt int64
}
