package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tobiloba/dailystash/internal/model"
)

// Prompter handles the interactive confirmations the stash commands need.
// Reader and writer are injectable for tests.
type Prompter struct {
	writer io.Writer
	reader *bufio.Reader
}

// NewPrompter creates a prompter with the given reader and writer.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader: bufio.NewReader(reader),
		writer: writer,
	}
}

// Confirm asks a yes/no question and returns the answer. An empty answer
// means no.
func (p *Prompter) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.writer, "%s [y/N]: ", question)

	line, err := p.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// ConfirmEarlyWithdrawal renders the penalty breakdown and asks the user to
// proceed.
func (p *Prompter) ConfirmEarlyWithdrawal(amount, penalty, disbursed model.Money) (bool, error) {
	fmt.Fprintln(p.writer, WarningStyle.Render("This plan has not matured; early withdrawal incurs a 5% penalty."))
	fmt.Fprintf(p.writer, "  Requested:  %s\n", amount.Format())
	fmt.Fprintf(p.writer, "  Penalty:    %s\n", ErrorStyle.Render(penalty.Format()))
	fmt.Fprintf(p.writer, "  You receive: %s\n", BoldStyle.Render(disbursed.Format()))
	return p.Confirm("Proceed with early withdrawal?")
}

// RenderPlan formats a plan summary for display.
func RenderPlan(plan model.SavingsPlan) string {
	var b strings.Builder

	progress := plan.Progress()
	b.WriteString(TitleStyle.Render(plan.Name))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  ID:        %s\n", SubtleStyle.Render(plan.ID.String()))
	fmt.Fprintf(&b, "  Status:    %s\n", renderStatus(plan.Status))
	fmt.Fprintf(&b, "  Saved:     %s of %s (%.1f%%)\n", plan.CurrentAmount.Format(), plan.TargetAmount.Format(), progress.Percent)
	fmt.Fprintf(&b, "  Daily:     %s\n", plan.DailyAmount.Format())
	fmt.Fprintf(&b, "  Streak:    %d days (%d remaining)\n", plan.Streak, progress.DaysRemaining)
	fmt.Fprintf(&b, "  Ends:      %s\n", plan.EndDate.Format("2006-01-02"))
	if plan.AutoSaveEnabled {
		fmt.Fprintf(&b, "  Auto-save: daily at %s\n", plan.AutoSaveTime)
	}

	return b.String()
}

// RenderTransaction formats a transaction summary for display.
func RenderTransaction(txn model.Transaction) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s  %s\n", txn.CreatedAt.Format("2006-01-02 15:04"),
		txn.Amount.Format(), txn.DisplayDescription())
	fmt.Fprintf(&b, "  Reference: %s\n", SubtleStyle.Render(txn.Reference))
	fmt.Fprintf(&b, "  Status:    %s\n", renderTxnStatus(txn.Status))
	if txn.FailureReason != "" {
		fmt.Fprintf(&b, "  Reason:    %s\n", ErrorStyle.Render(txn.FailureReason))
	}

	return b.String()
}

func renderStatus(status model.PlanStatus) string {
	switch status {
	case model.PlanActive:
		return SuccessStyle.Render(string(status))
	case model.PlanPaused:
		return WarningStyle.Render(string(status))
	case model.PlanCompleted:
		return BoldStyle.Render(string(status))
	default:
		return ErrorStyle.Render(string(status))
	}
}

func renderTxnStatus(status model.TransactionStatus) string {
	switch status {
	case model.TxnCompleted:
		return SuccessStyle.Render(string(status))
	case model.TxnPending:
		return WarningStyle.Render(string(status))
	default:
		return ErrorStyle.Render(string(status))
	}
}
