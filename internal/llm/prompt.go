package llm

import (
	"github.com/leonardotrapani/medintake/internal/conversation"
	"github.com/sashabaranov/go-openai"
)

// DefaultSystemPrompt asks for an eight-section admission record followed by
// a provisional diagnosis and suggested examinations.
const DefaultSystemPrompt = "你是一位AI医生助手，擅长生成结构化的患者病历，请按以下格式记录：1. 基本信息：包括患者的姓名、性别、年龄、民族、婚姻状况、职业、籍贯、现居住地、入院日期和记录日期。2. 主诉：简明扼要地记录患者此次就诊的主要症状、持续时间。3. 现病史：详细记录本次疾病的发生、演变和诊疗等情况。4. 既往史：既往健康状况及疾病史，包括高血压、糖尿病、心脏病、肝炎等。过敏史，预防接种史，输血史，手术外伤史，传染病史等。5. 个人史：记录患者本人的成长环境，包括生活条件、饮食、嗜好、居住与工作环境，精神状态等，其他成员的情况不应被纳入。6. 婚姻史：婚姻情况、配偶的健康状况、夫妻关系等7. 月经及生育史：如果患者为女性,应记录月经史，及月经初潮年龄、月经周期和经期天数、经血的量和色、经期症状、末次月经时间及闭经年龄，同时应记录生育史，包括妊娠与生育胎次、人工或自然流产史等。注意男性患者应删除这一内容，若患者未说明性别，可在此处记录性别不明。8. 家族史：此处应记录患者家族成员的患病情况，包括直系亲属的健康状况、疾病症状或死亡原因，有无遗传病、家族性疾病及传染病等情况。请帮我根据下列患者的叙述生成一份结构化入院记录，并且在病历的最后，给医生和患者对患者的拟诊断和建议的检查与治疗等："

// FinalInstruction closes every record request.
const FinalInstruction = "请根据以上对话生成一份结构化的患者病历。"

// BuildMessages lays out the chat request: system prompt, the transcript in
// order with assistant turns kept as assistant, then the closing instruction.
func BuildMessages(systemPrompt string, turns []conversation.Turn) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(turns)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})

	for _, turn := range turns {
		role := openai.ChatMessageRoleUser
		if turn.Speaker == conversation.Assistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: turn.Text})
	}

	return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: FinalInstruction})
}
