// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package guest

import "fmt"

// Type discriminates the variants of [Message].
type Type string

// Wire message types.
const (
	TypeConnect         Type = "connect"
	TypeCallFunc        Type = "call_func"
	TypeDitlangCallback Type = "ditlang_callback"
	TypeExeDitlang      Type = "exe_ditlang"
	TypeFinishFunc      Type = "finish_func"
	TypeCrash           Type = "crash"
	TypeJob             Type = "job"
	TypeClose           Type = "close"
)

// Wire field names.
const (
	fieldType     = "type"
	fieldLang     = "lang"
	fieldFuncPath = "func_path"
	fieldResult   = "result"
	fieldCrash    = "crash"
)

// Message is one protocol frame. Only the fields of the variant named by
// Type are meaningful:
//
//	connect           Lang
//	call_func         FuncPath
//	ditlang_callback  Result
//	exe_ditlang       Result
//	finish_func       Result (may be nil)
//	crash             Result (string)
//	job               Crash, Result
//	close             -
type Message struct {
	Type     Type
	Lang     string
	FuncPath string
	Result   any
	Crash    bool
}

// Connect returns the runtime identification message.
func Connect(lang string) *Message { return &Message{Type: TypeConnect, Lang: lang} }

// CallFunc returns a host request to run the module at path.
func CallFunc(path string) *Message { return &Message{Type: TypeCallFunc, FuncPath: path} }

// DitlangCallback returns a host answer to a delegation.
func DitlangCallback(result any) *Message {
	return &Message{Type: TypeDitlangCallback, Result: result}
}

// ExeDitlang returns a delegation request.
func ExeDitlang(result any) *Message { return &Message{Type: TypeExeDitlang, Result: result} }

// FinishFunc returns a session completion report.
func FinishFunc(result any) *Message { return &Message{Type: TypeFinishFunc, Result: result} }

// CrashReport returns a crash report carrying a human-readable description.
func CrashReport(text string) *Message { return &Message{Type: TypeCrash, Result: text} }

// Job returns a one-shot job report.
func Job(crash bool, result any) *Message {
	return &Message{Type: TypeJob, Crash: crash, Result: result}
}

// Close returns the explicit close signal.
func Close() *Message { return &Message{Type: TypeClose} }

// Known reports whether t names a protocol variant.
func (t Type) Known() bool {
	switch t {
	case TypeConnect, TypeCallFunc, TypeDitlangCallback, TypeExeDitlang,
		TypeFinishFunc, TypeCrash, TypeJob, TypeClose:
		return true
	}
	return false
}

// Inbound reports whether t is sent by the host to the daemon.
func (t Type) Inbound() bool {
	return t == TypeCallFunc || t == TypeDitlangCallback || t == TypeClose
}

// String returns a short rendering for logs.
func (m *Message) String() string {
	switch m.Type {
	case TypeConnect:
		return fmt.Sprintf("connect{lang:%q}", m.Lang)
	case TypeCallFunc:
		return fmt.Sprintf("call_func{func_path:%q}", m.FuncPath)
	case TypeJob:
		return fmt.Sprintf("job{crash:%t}", m.Crash)
	case TypeClose:
		return "close{}"
	}
	return string(m.Type) + "{...}"
}

// fields renders m as the generic map both codecs serialize. Encoding is
// total: every known variant maps to exactly its own fields.
func (m *Message) fields() map[string]any {
	f := map[string]any{fieldType: string(m.Type)}
	switch m.Type {
	case TypeConnect:
		f[fieldLang] = m.Lang
	case TypeCallFunc:
		f[fieldFuncPath] = m.FuncPath
	case TypeDitlangCallback, TypeExeDitlang, TypeFinishFunc:
		f[fieldResult] = m.Result
	case TypeCrash:
		f[fieldResult] = crashText(m.Result)
	case TypeJob:
		f[fieldCrash] = m.Crash
		f[fieldResult] = m.Result
	}
	return f
}

// crashText coerces a crash payload to text; crash results are free-form.
func crashText(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case error:
		return s.Error()
	}
	return fmt.Sprint(v)
}

// fromFields validates a decoded map and fills m. Any violation is a
// *ProtocolError.
func (m *Message) fromFields(f map[string]any) error {
	raw, ok := f[fieldType]
	if !ok {
		return protocolErrorf("missing %q field", fieldType)
	}
	name, ok := raw.(string)
	if !ok {
		return protocolErrorf("field %q is %T, want string", fieldType, raw)
	}
	t := Type(name)
	if !t.Known() {
		return &ProtocolError{Reason: fmt.Sprintf("message type %q", name), Err: ErrUnknownType}
	}

	*m = Message{Type: t}
	switch t {
	case TypeConnect:
		lang, err := stringField(f, fieldLang)
		if err != nil {
			return err
		}
		m.Lang = lang
	case TypeCallFunc:
		path, err := stringField(f, fieldFuncPath)
		if err != nil {
			return err
		}
		if path == "" {
			return protocolErrorf("call_func with empty %q", fieldFuncPath)
		}
		m.FuncPath = path
	case TypeDitlangCallback, TypeExeDitlang, TypeFinishFunc:
		v, ok := f[fieldResult]
		if !ok {
			return protocolErrorf("%s without %q field", t, fieldResult)
		}
		m.Result = v
	case TypeCrash:
		text, err := stringField(f, fieldResult)
		if err != nil {
			return err
		}
		m.Result = text
	case TypeJob:
		crash, ok := f[fieldCrash].(bool)
		if !ok {
			return protocolErrorf("job field %q is %T, want bool", fieldCrash, f[fieldCrash])
		}
		v, ok := f[fieldResult]
		if !ok {
			return protocolErrorf("job without %q field", fieldResult)
		}
		m.Crash = crash
		m.Result = v
	}
	return nil
}

func stringField(f map[string]any, key string) (string, error) {
	raw, ok := f[key]
	if !ok {
		return "", protocolErrorf("missing %q field", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", protocolErrorf("field %q is %T, want string", key, raw)
	}
	return s, nil
}
