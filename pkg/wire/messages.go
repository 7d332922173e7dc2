package wire

// RequestId is the monotonic request-id correlating an outbound probe or
// activation with the skill's eventual notification (spec.md §3).
type RequestId = uint64

// RequestData is the assistant's opaque envelope of what the user asked.
// The registry never interprets it, only stores and forwards it, so it is
// kept as the raw decoded value tree.
type RequestData struct {
	Value Value
}

// ClientData is the opaque envelope identifying who is asking.
type ClientData struct {
	Value Value
}

// Capability is a tagged, opaque side-effect or output payload a skill
// wishes to perform (e.g. render text, play audio).
type Capability struct {
	Kind    string
	Payload Value
}

func encodeCapability(w *Writer, c Capability) {
	w.WriteMapHeader(2)
	w.WriteString("kind")
	w.WriteString(c.Kind)
	w.WriteString("payload")
	w.WriteValue(c.Payload)
}

func decodeCapability(v Value) (Capability, error) {
	kindV, err := v.Field("kind")
	if err != nil {
		return Capability{}, err
	}
	kind, err := kindV.AsString()
	if err != nil {
		return Capability{}, err
	}
	payload, err := v.Field("payload")
	if err != nil {
		return Capability{}, err
	}
	return Capability{Kind: kind, Payload: payload}, nil
}

func encodeCapabilities(w *Writer, caps []Capability) {
	w.WriteListHeader(len(caps))
	for _, c := range caps {
		encodeCapability(w, c)
	}
}

func decodeCapabilities(v Value) ([]Capability, error) {
	list, err := v.AsList()
	if err != nil {
		return nil, err
	}
	out := make([]Capability, 0, len(list))
	for _, e := range list {
		c, err := decodeCapability(e)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// NluDataSlot binds a named intent parameter to an entity type.
type NluDataSlot struct {
	Name   string
	Entity string
}

// NluDataIntent is a named class of user utterances a skill can handle.
type NluDataIntent struct {
	Name       string
	Utterances []string
	Slots      []NluDataSlot
}

// NluDataEntity is a named value extractable from an utterance.
type NluDataEntity struct {
	Name   string
	Strict bool
	// Data holds entity values/synonyms; shape is entity-specific and
	// opaque to the registry.
	Data []Value
}

// NluData is a per-language declaration bundle, the payload carried by
// MsgRegisterIntents.
type NluData struct {
	Language string
	Intents  []NluDataIntent
	Entities []NluDataEntity
}

func encodeNluData(w *Writer, d NluData) {
	w.WriteMapHeader(3)
	w.WriteString("language")
	w.WriteString(d.Language)
	w.WriteString("intents")
	w.WriteListHeader(len(d.Intents))
	for _, in := range d.Intents {
		w.WriteMapHeader(3)
		w.WriteString("name")
		w.WriteString(in.Name)
		w.WriteString("utterances")
		w.WriteListHeader(len(in.Utterances))
		for _, u := range in.Utterances {
			w.WriteString(u)
		}
		w.WriteString("slots")
		w.WriteListHeader(len(in.Slots))
		for _, s := range in.Slots {
			w.WriteMapHeader(2)
			w.WriteString("name")
			w.WriteString(s.Name)
			w.WriteString("entity")
			w.WriteString(s.Entity)
		}
	}
	w.WriteString("entities")
	w.WriteListHeader(len(d.Entities))
	for _, e := range d.Entities {
		w.WriteMapHeader(3)
		w.WriteString("name")
		w.WriteString(e.Name)
		w.WriteString("strict")
		w.WriteBool(e.Strict)
		w.WriteString("data")
		w.WriteValue(Value{Kind: KindList, List: e.Data})
	}
}

func decodeNluData(v Value) (NluData, error) {
	var d NluData
	langV, err := v.Field("language")
	if err != nil {
		return d, err
	}
	if d.Language, err = langV.AsString(); err != nil {
		return d, err
	}

	intentsV, err := v.Field("intents")
	if err != nil {
		return d, err
	}
	intentList, err := intentsV.AsList()
	if err != nil {
		return d, err
	}
	for _, iv := range intentList {
		nameV, err := iv.Field("name")
		if err != nil {
			return d, err
		}
		name, err := nameV.AsString()
		if err != nil {
			return d, err
		}
		uttV, err := iv.Field("utterances")
		if err != nil {
			return d, err
		}
		uttList, err := uttV.AsList()
		if err != nil {
			return d, err
		}
		utterances := make([]string, 0, len(uttList))
		for _, u := range uttList {
			s, err := u.AsString()
			if err != nil {
				return d, err
			}
			utterances = append(utterances, s)
		}
		slotsV, err := iv.Field("slots")
		if err != nil {
			return d, err
		}
		slotList, err := slotsV.AsList()
		if err != nil {
			return d, err
		}
		slots := make([]NluDataSlot, 0, len(slotList))
		for _, sv := range slotList {
			snV, err := sv.Field("name")
			if err != nil {
				return d, err
			}
			sn, err := snV.AsString()
			if err != nil {
				return d, err
			}
			seV, err := sv.Field("entity")
			if err != nil {
				return d, err
			}
			se, err := seV.AsString()
			if err != nil {
				return d, err
			}
			slots = append(slots, NluDataSlot{Name: sn, Entity: se})
		}
		d.Intents = append(d.Intents, NluDataIntent{Name: name, Utterances: utterances, Slots: slots})
	}

	entitiesV, err := v.Field("entities")
	if err != nil {
		return d, err
	}
	entityList, err := entitiesV.AsList()
	if err != nil {
		return d, err
	}
	for _, ev := range entityList {
		nameV, err := ev.Field("name")
		if err != nil {
			return d, err
		}
		name, err := nameV.AsString()
		if err != nil {
			return d, err
		}
		strictV, err := ev.Field("strict")
		if err != nil {
			return d, err
		}
		if strictV.Kind != KindBool {
			return d, ErrTypeMismatch
		}
		dataV, err := ev.Field("data")
		if err != nil {
			return d, err
		}
		dataList, err := dataV.AsList()
		if err != nil {
			return d, err
		}
		d.Entities = append(d.Entities, NluDataEntity{Name: name, Strict: strictV.Bool, Data: dataList})
	}

	return d, nil
}

// MsgConnect is a skill's handshake announcing identity and the
// capability kinds it may later produce.
type MsgConnect struct {
	ID           string
	Capabilities []string
}

// Encode serializes the message.
func (m MsgConnect) Encode() []byte {
	w := NewWriter()
	w.WriteMapHeader(2)
	w.WriteString("id")
	w.WriteString(m.ID)
	w.WriteString("capabilities")
	w.WriteListHeader(len(m.Capabilities))
	for _, c := range m.Capabilities {
		w.WriteString(c)
	}
	return w.Bytes()
}

// DecodeMsgConnect decodes a MsgConnect payload.
func DecodeMsgConnect(data []byte) (MsgConnect, error) {
	var m MsgConnect
	root, err := NewReader(data).ReadValue()
	if err != nil {
		return m, err
	}
	idV, err := root.Field("id")
	if err != nil {
		return m, err
	}
	if m.ID, err = idV.AsString(); err != nil {
		return m, err
	}
	capsV, err := root.Field("capabilities")
	if err != nil {
		return m, err
	}
	capList, err := capsV.AsList()
	if err != nil {
		return m, err
	}
	for _, c := range capList {
		s, err := c.AsString()
		if err != nil {
			return m, err
		}
		m.Capabilities = append(m.Capabilities, s)
	}
	return m, nil
}

// MsgRegisterIntents bundles NLU declarations, one per language, for a
// skill.
type MsgRegisterIntents struct {
	SkillID string
	NluData []NluData
}

// Encode serializes the message.
func (m MsgRegisterIntents) Encode() []byte {
	w := NewWriter()
	w.WriteMapHeader(2)
	w.WriteString("skill_id")
	w.WriteString(m.SkillID)
	w.WriteString("nlu_data")
	w.WriteListHeader(len(m.NluData))
	for _, d := range m.NluData {
		encodeNluData(w, d)
	}
	return w.Bytes()
}

// DecodeMsgRegisterIntents decodes a MsgRegisterIntents payload.
func DecodeMsgRegisterIntents(data []byte) (MsgRegisterIntents, error) {
	var m MsgRegisterIntents
	root, err := NewReader(data).ReadValue()
	if err != nil {
		return m, err
	}
	idV, err := root.Field("skill_id")
	if err != nil {
		return m, err
	}
	if m.SkillID, err = idV.AsString(); err != nil {
		return m, err
	}
	dataV, err := root.Field("nlu_data")
	if err != nil {
		return m, err
	}
	list, err := dataV.AsList()
	if err != nil {
		return m, err
	}
	for _, dv := range list {
		d, err := decodeNluData(dv)
		if err != nil {
			return m, err
		}
		m.NluData = append(m.NluData, d)
	}
	return m, nil
}

// MsgQuery is upper-layer-defined; the registry passes it through opaque.
type MsgQuery struct {
	Payload Value
}

// Encode serializes the message.
func (m MsgQuery) Encode() []byte {
	w := NewWriter()
	w.WriteValue(m.Payload)
	return w.Bytes()
}

// DecodeMsgQuery decodes a MsgQuery payload.
func DecodeMsgQuery(data []byte) (MsgQuery, error) {
	v, err := NewReader(data).ReadValue()
	if err != nil {
		return MsgQuery{}, err
	}
	return MsgQuery{Payload: v}, nil
}

// MsgSkillClose announces a skill disconnecting.
type MsgSkillClose struct {
	ID string
}

// Encode serializes the message.
func (m MsgSkillClose) Encode() []byte {
	w := NewWriter()
	w.WriteMapHeader(1)
	w.WriteString("id")
	w.WriteString(m.ID)
	return w.Bytes()
}

// DecodeMsgSkillClose decodes a MsgSkillClose payload.
func DecodeMsgSkillClose(data []byte) (MsgSkillClose, error) {
	var m MsgSkillClose
	root, err := NewReader(data).ReadValue()
	if err != nil {
		return m, err
	}
	idV, err := root.Field("id")
	if err != nil {
		return m, err
	}
	if m.ID, err = idV.AsString(); err != nil {
		return m, err
	}
	return m, nil
}

// MsgSkillRequest is sent hub-to-skill to probe answerability (GET) or
// activate the skill (PUT).
type MsgSkillRequest struct {
	Client    ClientData
	RequestID RequestId
	Request   RequestData
}

// Encode serializes the message.
func (m MsgSkillRequest) Encode() []byte {
	w := NewWriter()
	w.WriteMapHeader(3)
	w.WriteString("client")
	w.WriteValue(m.Client.Value)
	w.WriteString("request_id")
	w.WriteUint(m.RequestID)
	w.WriteString("request")
	w.WriteValue(m.Request.Value)
	return w.Bytes()
}

// DecodeMsgSkillRequest decodes a MsgSkillRequest payload.
func DecodeMsgSkillRequest(data []byte) (MsgSkillRequest, error) {
	var m MsgSkillRequest
	root, err := NewReader(data).ReadValue()
	if err != nil {
		return m, err
	}
	clientV, err := root.Field("client")
	if err != nil {
		return m, err
	}
	m.Client = ClientData{Value: clientV}
	ridV, err := root.Field("request_id")
	if err != nil {
		return m, err
	}
	if m.RequestID, err = ridV.AsUint(); err != nil {
		return m, err
	}
	reqV, err := root.Field("request")
	if err != nil {
		return m, err
	}
	m.Request = RequestData{Value: reqV}
	return m, nil
}

// NotificationItemKind discriminates the sub-items of a MsgNotification
// (spec.md §4.D).
type NotificationItemKind int

const (
	// NotifyCanYouAnswer carries a confidence reply to an outbound probe.
	NotifyCanYouAnswer NotificationItemKind = iota
	// NotifyRequested carries capabilities fulfilling an outbound activate.
	NotifyRequested
	// NotifyStandAlone carries unsolicited output for a client.
	NotifyStandAlone
)

// NotificationItem is one entry of MsgNotification.Data.
type NotificationItem struct {
	Kind         NotificationItemKind
	RequestID    RequestId  // CanYouAnswer, Requested
	Confidence   float32    // CanYouAnswer
	Capabilities []Capability // Requested, StandAlone
	ClientID     string     // StandAlone
}

func encodeNotificationItem(w *Writer, item NotificationItem) {
	switch item.Kind {
	case NotifyCanYouAnswer:
		w.WriteMapHeader(3)
		w.WriteString("type")
		w.WriteString("can_you_answer")
		w.WriteString("request_id")
		w.WriteUint(item.RequestID)
		w.WriteString("confidence")
		w.WriteFloat32(item.Confidence)
	case NotifyRequested:
		w.WriteMapHeader(3)
		w.WriteString("type")
		w.WriteString("requested")
		w.WriteString("request_id")
		w.WriteUint(item.RequestID)
		w.WriteString("capabilities")
		encodeCapabilities(w, item.Capabilities)
	case NotifyStandAlone:
		w.WriteMapHeader(3)
		w.WriteString("type")
		w.WriteString("stand_alone")
		w.WriteString("client_id")
		w.WriteString(item.ClientID)
		w.WriteString("capabilities")
		encodeCapabilities(w, item.Capabilities)
	}
}

func decodeNotificationItem(v Value) (NotificationItem, error) {
	typeV, err := v.Field("type")
	if err != nil {
		return NotificationItem{}, err
	}
	kind, err := typeV.AsString()
	if err != nil {
		return NotificationItem{}, err
	}
	switch kind {
	case "can_you_answer":
		ridV, err := v.Field("request_id")
		if err != nil {
			return NotificationItem{}, err
		}
		rid, err := ridV.AsUint()
		if err != nil {
			return NotificationItem{}, err
		}
		confV, err := v.Field("confidence")
		if err != nil {
			return NotificationItem{}, err
		}
		conf, err := confV.AsFloat32()
		if err != nil {
			return NotificationItem{}, err
		}
		return NotificationItem{Kind: NotifyCanYouAnswer, RequestID: rid, Confidence: conf}, nil
	case "requested":
		ridV, err := v.Field("request_id")
		if err != nil {
			return NotificationItem{}, err
		}
		rid, err := ridV.AsUint()
		if err != nil {
			return NotificationItem{}, err
		}
		capsV, err := v.Field("capabilities")
		if err != nil {
			return NotificationItem{}, err
		}
		caps, err := decodeCapabilities(capsV)
		if err != nil {
			return NotificationItem{}, err
		}
		return NotificationItem{Kind: NotifyRequested, RequestID: rid, Capabilities: caps}, nil
	case "stand_alone":
		cidV, err := v.Field("client_id")
		if err != nil {
			return NotificationItem{}, err
		}
		cid, err := cidV.AsString()
		if err != nil {
			return NotificationItem{}, err
		}
		capsV, err := v.Field("capabilities")
		if err != nil {
			return NotificationItem{}, err
		}
		caps, err := decodeCapabilities(capsV)
		if err != nil {
			return NotificationItem{}, err
		}
		return NotificationItem{Kind: NotifyStandAlone, ClientID: cid, Capabilities: caps}, nil
	default:
		return NotificationItem{}, ErrTypeMismatch
	}
}

// MsgNotification is posted by a skill: a batch of answerability replies,
// activation replies, and/or stand-alone output.
type MsgNotification struct {
	SkillID string
	Data    []NotificationItem
}

// Encode serializes the message.
func (m MsgNotification) Encode() []byte {
	w := NewWriter()
	w.WriteMapHeader(2)
	w.WriteString("skill_id")
	w.WriteString(m.SkillID)
	w.WriteString("data")
	w.WriteListHeader(len(m.Data))
	for _, item := range m.Data {
		encodeNotificationItem(w, item)
	}
	return w.Bytes()
}

// DecodeMsgNotification decodes a MsgNotification payload.
func DecodeMsgNotification(data []byte) (MsgNotification, error) {
	var m MsgNotification
	root, err := NewReader(data).ReadValue()
	if err != nil {
		return m, err
	}
	idV, err := root.Field("skill_id")
	if err != nil {
		return m, err
	}
	if m.SkillID, err = idV.AsString(); err != nil {
		return m, err
	}
	dataV, err := root.Field("data")
	if err != nil {
		return m, err
	}
	list, err := dataV.AsList()
	if err != nil {
		return m, err
	}
	for _, iv := range list {
		item, err := decodeNotificationItem(iv)
		if err != nil {
			return m, err
		}
		m.Data = append(m.Data, item)
	}
	return m, nil
}

// ResponseItem is one entry of MsgNotificationResponse.Data, echoing the
// outcome of resolving a single NotificationItem.
type ResponseItem struct {
	Kind      NotificationItemKind // NotifyCanYouAnswer or NotifyRequested
	Code      uint16
	RequestID RequestId
}

func encodeResponseItem(w *Writer, item ResponseItem) {
	w.WriteMapHeader(3)
	w.WriteString("type")
	if item.Kind == NotifyCanYouAnswer {
		w.WriteString("can_you_answer")
	} else {
		w.WriteString("requested")
	}
	w.WriteString("code")
	w.WriteUint(uint64(item.Code))
	w.WriteString("request_id")
	w.WriteUint(item.RequestID)
}

func decodeResponseItem(v Value) (ResponseItem, error) {
	typeV, err := v.Field("type")
	if err != nil {
		return ResponseItem{}, err
	}
	kindStr, err := typeV.AsString()
	if err != nil {
		return ResponseItem{}, err
	}
	var kind NotificationItemKind
	switch kindStr {
	case "can_you_answer":
		kind = NotifyCanYouAnswer
	case "requested":
		kind = NotifyRequested
	default:
		return ResponseItem{}, ErrTypeMismatch
	}
	codeV, err := v.Field("code")
	if err != nil {
		return ResponseItem{}, err
	}
	code, err := codeV.AsUint()
	if err != nil {
		return ResponseItem{}, err
	}
	ridV, err := v.Field("request_id")
	if err != nil {
		return ResponseItem{}, err
	}
	rid, err := ridV.AsUint()
	if err != nil {
		return ResponseItem{}, err
	}
	return ResponseItem{Kind: kind, Code: uint16(code), RequestID: rid}, nil
}

// MsgNotificationResponse is the dispatcher's reply to a MsgNotification
// that had no stand-alone batch: one ResponseItem per non-stand-alone
// sub-item, in input order.
type MsgNotificationResponse struct {
	Data []ResponseItem
}

// Encode serializes the message.
func (m MsgNotificationResponse) Encode() []byte {
	w := NewWriter()
	w.WriteMapHeader(1)
	w.WriteString("data")
	w.WriteListHeader(len(m.Data))
	for _, item := range m.Data {
		encodeResponseItem(w, item)
	}
	return w.Bytes()
}

// DecodeMsgNotificationResponse decodes a MsgNotificationResponse payload.
func DecodeMsgNotificationResponse(data []byte) (MsgNotificationResponse, error) {
	var m MsgNotificationResponse
	root, err := NewReader(data).ReadValue()
	if err != nil {
		return m, err
	}
	dataV, err := root.Field("data")
	if err != nil {
		return m, err
	}
	list, err := dataV.AsList()
	if err != nil {
		return m, err
	}
	for _, iv := range list {
		item, err := decodeResponseItem(iv)
		if err != nil {
			return m, err
		}
		m.Data = append(m.Data, item)
	}
	return m, nil
}
