package core

// Reply markers. The system prompt instructs the model to begin every reply
// with exactly one of these prefixes; the perception layer keys off them.
const (
	// MarkerNote tags free-form reasoning text.
	MarkerNote = "THINKING:"
	// MarkerToolCall tags a function invocation of the form "name|params".
	MarkerToolCall = "FUNCTION_CALL:"
	// MarkerCheck tags a request to verify produced output.
	MarkerCheck = "VERIFICATION:"
	// MarkerFinal tags the terminal ranked result as a JSON array.
	MarkerFinal = "FINAL_ANSWER:"
)

// IntentKind discriminates the Intent sum type. Exactly one kind is active
// per model turn; switches over IntentKind are expected to be exhaustive.
type IntentKind int

const (
	// IntentNote is a free-form reasoning reply.
	IntentNote IntentKind = iota
	// IntentToolCall is a function invocation request.
	IntentToolCall
	// IntentCheck is a verification request.
	IntentCheck
	// IntentFinal is the terminal result. Content holds the raw, undecoded
	// array text; decoding is deferred to the decision layer.
	IntentFinal
	// IntentComposite is a reasoning note followed by a function call in the
	// same reply.
	IntentComposite
	// IntentMalformed is a reply matching no known marker.
	IntentMalformed
	// IntentFailure signals that the model invocation itself failed.
	IntentFailure
)

// String returns the lowercase tag used in logs and transcripts.
func (k IntentKind) String() string {
	switch k {
	case IntentNote:
		return "thinking"
	case IntentToolCall:
		return "function_call"
	case IntentCheck:
		return "verification"
	case IntentFinal:
		return "final_answer"
	case IntentComposite:
		return "mixed"
	case IntentMalformed:
		return "unknown"
	case IntentFailure:
		return "error"
	}
	return "invalid"
}

// Intent is the structured interpretation of one model reply.
//
// Content carries the text payload: the note body for IntentNote, the check
// content for IntentCheck, the raw array text for IntentFinal, the full reply
// for IntentMalformed and the error description for IntentFailure.
// Function/Params are populated for IntentToolCall and IntentComposite, and
// Note holds the leading reasoning text of an IntentComposite reply.
type Intent struct {
	Kind     IntentKind
	Content  string
	Function string
	Params   string
	Note     string
}

// NoteIntent builds a free-form reasoning intent.
func NoteIntent(content string) Intent { return Intent{Kind: IntentNote, Content: content} }

// ToolCallIntent builds a function invocation intent.
func ToolCallIntent(function, params string) Intent {
	return Intent{Kind: IntentToolCall, Function: function, Params: params}
}

// CheckIntent builds a verification request intent.
func CheckIntent(content string) Intent { return Intent{Kind: IntentCheck, Content: content} }

// FinalIntent builds a terminal result intent carrying the raw array text.
func FinalIntent(content string) Intent { return Intent{Kind: IntentFinal, Content: content} }

// CompositeIntent builds a note-plus-tool-call intent.
func CompositeIntent(note, function, params string) Intent {
	return Intent{Kind: IntentComposite, Note: note, Function: function, Params: params}
}

// MalformedIntent builds an intent for a reply matching no marker.
func MalformedIntent(raw string) Intent { return Intent{Kind: IntentMalformed, Content: raw} }

// FailureIntent builds an intent describing a failed model invocation.
func FailureIntent(description string) Intent {
	return Intent{Kind: IntentFailure, Content: description}
}
