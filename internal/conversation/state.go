package conversation

import (
	"fmt"
	"strings"
)

// Speaker tags who produced a turn.
type Speaker string

const (
	Patient   Speaker = "patient"
	Assistant Speaker = "assistant"
)

// Turn is one message in the conversation log. Turns are never modified after append.
type Turn struct {
	Speaker Speaker
	Text    string
}

// Mode is the coordinator's conversational mode.
type Mode string

const (
	ScriptedQuestioning        Mode = "scripted_questioning"
	SupplementCollection       Mode = "supplement_collection"
	AwaitingRecordConfirmation Mode = "awaiting_record_confirmation"
)

// State is the conversation state of a single session.
// It is owned by exactly one Coordinator, which is its only writer.
type State struct {
	script Script
	turns  []Turn
	cursor int
	mode   Mode

	// finalAsked is set once the last scripted question has been emitted.
	finalAsked bool
}

// NewState creates the state for a fresh session.
func NewState(script Script) *State {
	return &State{
		script: script.clone(),
		mode:   ScriptedQuestioning,
	}
}

// Teardown drops the transcript. The state must not be used afterwards.
func (s *State) Teardown() {
	s.turns = nil
	s.script = Script{}
}

func (s *State) Mode() Mode { return s.mode }

func (s *State) Cursor() int { return s.cursor }

func (s *State) Script() Script { return s.script.clone() }

// ScriptExhausted reports whether every scripted question has been asked.
func (s *State) ScriptExhausted() bool {
	return s.cursor >= len(s.script.Questions)
}

// Turns returns a copy of the log in conversational order.
func (s *State) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *State) Len() int { return len(s.turns) }

func (s *State) append(speaker Speaker, text string) {
	s.turns = append(s.turns, Turn{Speaker: speaker, Text: text})
}

// nextQuestion returns the question under the cursor and advances it.
// Once SupplementCollection has been entered the cursor is frozen.
func (s *State) nextQuestion() (string, bool) {
	if s.mode == SupplementCollection || s.ScriptExhausted() {
		return "", false
	}
	q := s.script.Questions[s.cursor]
	s.cursor++
	if s.ScriptExhausted() {
		s.finalAsked = true
	}
	return q, true
}

// Script is the fixed questionnaire the assistant walks through.
// The last question invites the patient to add anything missing.
type Script struct {
	Greeting  string
	Questions []string
}

func (s Script) clone() Script {
	qs := make([]string, len(s.Questions))
	copy(qs, s.Questions)
	return Script{Greeting: s.Greeting, Questions: qs}
}

// Validate rejects scripts with blank entries.
func (s Script) Validate() error {
	for i, q := range s.Questions {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("script: question %d is empty", i+1)
		}
	}
	return nil
}

// DefaultScript is the lung nodule screening questionnaire.
func DefaultScript() Script {
	return Script{
		Greeting: "您好，我是筛查机器人医生，负责采集您的一些信息，我将就您肺结节的情况向您咨询一些问题，请您配合我。下面，我们开始。首先，请提供您的姓名、年龄、性别以及手机联系方式。",
		Questions: []string{
			"好的，请问您是什么时候开始发现有肺结节的？做过哪些检查？",
			"您是否记得结节位于主要在肺的哪个部位？你过去随访过程中结节是否有变化，是否曾就医治疗？",
			"您过去有没有患过高血压、糖尿病这一类的慢性疾病，或者对什么药物或物质有过敏反应？是否接受过大型手术？",
			"您平时是否抽烟或者饮酒？具体频率如何？另外，您近期饮食、睡眠如何，是否有不舒服的情况？",
			"好的，感谢您的配合！最后，请问您的爱人、子女以及亲戚朋友中有没有类似情况的健康问题？",
			"好的，我已经大概搜集好您的情况，您是否有需要补充的？请您告诉我。",
		},
	}
}
