package common

// DefaultTimeLimit is applied when the host omits a question's time limit.
const DefaultTimeLimit = 30

// Question is the server-side representation. The correct answer index never
// leaves the server except through a reveal.
type Question struct {
	Id        string   `json:"id"`
	Text      string   `json:"text"`
	Options   []string `json:"options"`
	Correct   int      `json:"-"`
	TimeLimit int      `json:"timeLimit"` // seconds
	Category  string   `json:"category"`
}

func (q Question) NumOptions() int {
	return len(q.Options)
}

// QuestionView is the projection broadcast to teams: the correct index is
// stripped and a 1-based question number is added.
type QuestionView struct {
	Id             string   `json:"id"`
	Text           string   `json:"text"`
	Options        []string `json:"options"`
	TimeLimit      int      `json:"timeLimit"`
	Category       string   `json:"category"`
	QuestionNumber int      `json:"questionNumber"`
	TotalQuestions int      `json:"totalQuestions"`
}

func (q Question) View(number, total int) QuestionView {
	return QuestionView{
		Id:             q.Id,
		Text:           q.Text,
		Options:        q.Options,
		TimeLimit:      q.TimeLimit,
		Category:       q.Category,
		QuestionNumber: number,
		TotalQuestions: total,
	}
}
