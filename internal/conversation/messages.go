package conversation

import "fmt"

// Messages holds every user-facing line the coordinator produces on its own.
// Format verbs are noted per field.
type Messages struct {
	PleaseWait        string
	InviteSupplement  string
	Farewell          string
	RecordSaved       string // %s path, %s document
	RecordFailed      string // %v error
	RecognitionFailed string // %v error
	SynthesisFailed   string // %v error
	CaptureFailed     string // %v error
	DeviceUnavailable string // %v error
	AlreadyRecording  string
}

func DefaultMessages() Messages {
	return Messages{
		PleaseWait:        "正在生成结构化入院记录，请稍候...",
		InviteSupplement:  "您可以继续补充信息，发送消息后系统会立即生成新的病历和参考诊断与治疗建议。",
		Farewell:          "感谢您使用AI医生助手，您的病历报告和参考诊断与治疗建议已发送给您的医生！问诊已结束。",
		RecordSaved:       "病历已保存至：%s\n\n病历内容：\n%s",
		RecordFailed:      "生成病历时发生错误，请重试。错误信息：%v",
		RecognitionFailed: "语音识别错误: %v",
		SynthesisFailed:   "语音合成错误: %v",
		CaptureFailed:     "录音失败: %v",
		DeviceUnavailable: "无法打开麦克风: %v",
		AlreadyRecording:  "正在录音中，请先停止当前录音。",
	}
}

// WithDefaults fills empty fields from DefaultMessages.
func (m Messages) WithDefaults() Messages {
	d := DefaultMessages()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&m.PleaseWait, d.PleaseWait)
	fill(&m.InviteSupplement, d.InviteSupplement)
	fill(&m.Farewell, d.Farewell)
	fill(&m.RecordSaved, d.RecordSaved)
	fill(&m.RecordFailed, d.RecordFailed)
	fill(&m.RecognitionFailed, d.RecognitionFailed)
	fill(&m.SynthesisFailed, d.SynthesisFailed)
	fill(&m.CaptureFailed, d.CaptureFailed)
	fill(&m.DeviceUnavailable, d.DeviceUnavailable)
	fill(&m.AlreadyRecording, d.AlreadyRecording)
	return m
}

// notice renders the message for a failure kind.
func (m Messages) notice(kind ErrorKind, err error) string {
	switch kind {
	case DeviceUnavailable:
		return fmt.Sprintf(m.DeviceUnavailable, err)
	case CaptureIOError:
		return fmt.Sprintf(m.CaptureFailed, err)
	case RecognitionFailed:
		return fmt.Sprintf(m.RecognitionFailed, err)
	case SynthesisFailed:
		return fmt.Sprintf(m.SynthesisFailed, err)
	case RecordGenerationFailed:
		return fmt.Sprintf(m.RecordFailed, err)
	case AlreadyRecording:
		return m.AlreadyRecording
	default:
		return fmt.Sprint(err)
	}
}
