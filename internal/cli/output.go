package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Me:
		o.printMe(v)
	case AuthResult:
		o.printAuthResult(v)
	case Session:
		o.printSession(v)
	case GuessResult:
		o.printGuessResult(v)
	case GuessHistory:
		o.printGuessHistory(v)
	case Score:
		o.printScore(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// Identity response type
type Identity struct {
	DeviceID      string `json:"device_id"`
	UserID        string `json:"user_id,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// Me describes the device and any signed-in account
type Me struct {
	Device   Player   `json:"device"`
	Account  *Player  `json:"account,omitempty"`
	Identity Identity `json:"identity"`
}

// Warning is a recoverable failure reported alongside a result
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AuthResult combines the device, token and reconciled session
type AuthResult struct {
	Me
	SessionToken string    `json:"session_token"`
	Session      *Session  `json:"session,omitempty"`
	Warnings     []Warning `json:"warnings,omitempty"`
}

// Item response type; Year is zero while hidden
type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Year  int    `json:"year,omitempty"`
	Month int    `json:"month,omitempty"`
}

// Pair response type
type Pair struct {
	Reference *Item `json:"reference"`
	Current   *Item `json:"current"`
}

// Score response type
type Score struct {
	CurrentScore int       `json:"current_score"`
	HighScore    int       `json:"high_score"`
	Identity     *Identity `json:"identity,omitempty"`
}

// Session response type
type Session struct {
	Status        string    `json:"status"`
	Identity      Identity  `json:"identity"`
	Pair          Pair      `json:"pair"`
	Score         Score     `json:"score"`
	Guesses       int       `json:"guesses"`
	DeckRemaining int       `json:"deck_remaining"`
	Warnings      []Warning `json:"warnings,omitempty"`
}

// GuessResult response type
type GuessResult struct {
	Guess    string    `json:"guess"`
	Correct  bool      `json:"correct"`
	Previous Pair      `json:"previous"`
	Session  Session   `json:"session"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// GuessRecord response type
type GuessRecord struct {
	PreviousYear  int       `json:"previous_year"`
	PreviousMonth int       `json:"previous_month"`
	CurrentYear   int       `json:"current_year"`
	CurrentMonth  int       `json:"current_month"`
	Guess         string    `json:"guess"`
	Correct       bool      `json:"correct"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// GuessHistory response type
type GuessHistory struct {
	Guesses []GuessRecord `json:"guesses"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printPlayer(label string, p Player) {
	fmt.Printf("%s: %s (%s)\n", label, p.DisplayName, p.ID)
}

func (o *Output) printMe(m Me) {
	o.printPlayer("Device", m.Device)
	if m.Account != nil {
		o.printPlayer("Account", *m.Account)
	} else {
		fmt.Println("Account: not signed in")
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printMe(a.Me)
	fmt.Printf("Token: %s\n", a.SessionToken)
	if a.Session != nil {
		fmt.Printf("High score: %d\n", a.Session.Score.HighScore)
	}
	o.printWarnings(a.Warnings)
}

func (o *Output) printSession(s Session) {
	fmt.Printf("Status: %s\n", s.Status)
	if s.Pair.Reference != nil && s.Pair.Current != nil {
		fmt.Printf("Reference: %s\n", formatItem(s.Pair.Reference))
		fmt.Printf("Current:   %s\n", formatItem(s.Pair.Current))
	}
	fmt.Printf("Score: %d (high %d)\n", s.Score.CurrentScore, s.Score.HighScore)
	if s.Status == "playing" {
		fmt.Printf("Items left in deck: %d\n", s.DeckRemaining)
	}
	o.printWarnings(s.Warnings)
}

func (o *Output) printGuessResult(g GuessResult) {
	verdict := "Wrong"
	if g.Correct {
		verdict = "Correct"
	}
	fmt.Printf("%s! %s\n", verdict, formatItem(g.Previous.Current))
	fmt.Println()
	o.printSession(g.Session)
	o.printWarnings(g.Warnings)
}

func (o *Output) printGuessHistory(h GuessHistory) {
	if len(h.Guesses) == 0 {
		fmt.Println("No guesses yet")
		return
	}
	for _, g := range h.Guesses {
		mark := "x"
		if g.Correct {
			mark = "+"
		}
		fmt.Printf("%s %s  %s vs %s  (%s)\n",
			mark,
			g.RecordedAt.Local().Format(time.DateTime),
			formatDate(g.CurrentYear, g.CurrentMonth),
			formatDate(g.PreviousYear, g.PreviousMonth),
			g.Guess,
		)
	}
}

func (o *Output) printScore(s Score) {
	fmt.Printf("Current: %d\n", s.CurrentScore)
	fmt.Printf("High:    %d\n", s.HighScore)
	if s.Identity != nil && s.Identity.Authenticated {
		fmt.Println("Saved to your account")
	}
}

func (o *Output) printWarnings(warnings []Warning) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s (%s)\n", w.Message, w.Code)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}

func formatItem(i *Item) string {
	if i == nil {
		return "-"
	}
	if i.Year == 0 {
		return fmt.Sprintf("%s [????]", i.Title)
	}
	return fmt.Sprintf("%s [%s]", i.Title, formatDate(i.Year, i.Month))
}

func formatDate(year, month int) string {
	if month < 1 || month > 12 {
		return fmt.Sprintf("%d", year)
	}
	return fmt.Sprintf("%s %d", time.Month(month).String()[:3], year)
}
