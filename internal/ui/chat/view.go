// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ricky/internal/model"
	"github.com/jeranaias/ricky/internal/ui/components"
	"github.com/jeranaias/ricky/internal/ui/styles"
)

// =============================================================================
// MAIN LAYOUT
// =============================================================================

// renderChat assembles the full chat screen: header, transcript viewport,
// optional suggestion footer, input area, status bar.
func (m Model) renderChat() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	input := m.renderInput()
	status := m.renderStatusBar()

	suggestions := ""
	if m.suggestions.HasSuggestions() {
		suggestions = m.suggestions.View()
	}

	// The layout constants in recalcLayout are conservative; measure the
	// chrome rows as rendered and clamp the transcript if they disagree.
	chromeHeight := lipgloss.Height(header) + lipgloss.Height(input) + lipgloss.Height(status)
	if suggestions != "" {
		chromeHeight += lipgloss.Height(suggestions)
	}

	availableHeight := m.height - chromeHeight
	if availableHeight < 1 {
		availableHeight = 1
	}

	messages := m.viewport.View()
	if lipgloss.Height(messages) != availableHeight {
		messages = lipgloss.NewStyle().
			Height(availableHeight).
			MaxHeight(availableHeight).
			Width(m.width).
			Render(messages)
	}

	if suggestions != "" {
		return lipgloss.JoinVertical(lipgloss.Left, header, messages, suggestions, input, status)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, messages, input, status)
}

// =============================================================================
// HEADER
// =============================================================================

// renderHeader renders the one-line header bar: app name, active model,
// state indicator, and any transient status note on the right.
func (m Model) renderHeader() string {
	width := m.width
	if width == 0 {
		width = 80
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Purple).
		Render("ricky")

	modelName := m.modelName
	if modelName == "" {
		modelName = "no model"
	}
	subtitle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render(" | " + modelName)

	var stateIcon string
	switch m.state {
	case StateStreaming:
		stateIcon = lipgloss.NewStyle().
			Foreground(styles.Emerald).
			Render(" " + styles.StatusIndicators.Active)
	default:
		stateIcon = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Render(" " + styles.StatusIndicators.Success)
	}

	left := title + subtitle + stateIcon

	bar := lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		Width(width).
		Padding(0, 1)

	if m.statusMsg != "" {
		note := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Render(m.statusMsg)
		gap := width - lipgloss.Width(left) - lipgloss.Width(note) - 2
		if gap > 0 {
			return bar.Render(left + strings.Repeat(" ", gap) + note)
		}
	}

	return bar.Render(left)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// renderTurns renders the transcript content for the viewport.
func (m Model) renderTurns() string {
	if len(m.turns) == 0 {
		return m.renderEmptyState()
	}

	var parts []string
	for _, turn := range m.turns {
		var block string
		switch turn.Role {
		case model.RoleUser:
			block = m.renderUserTurn(turn)
		case model.RoleAssistant:
			block = m.renderAssistantTurn(turn)
		}
		if block != "" {
			parts = append(parts, block)
		}
	}

	if m.thinking.IsActive() {
		parts = append(parts, m.renderThinking())
	}

	return strings.Join(parts, "\n")
}

// renderUserTurn renders a right-aligned user bubble.
func (m Model) renderUserTurn(turn model.Turn) string {
	width := m.viewport.Width
	if width == 0 {
		width = 80
	}

	maxWidth := width - 8
	if maxWidth > width-2 {
		maxWidth = width - 2
	}
	if maxWidth < 10 {
		maxWidth = 10
	}

	wrapWidth := maxWidth - 4
	if wrapWidth < 10 {
		wrapWidth = 10
	}
	text := wrapText(turn.Text, wrapWidth)

	bubble := m.theme.UserBubble.MaxWidth(maxWidth).Render(text)

	// Push the bubble to the right edge.
	marginLeft := width - lipgloss.Width(bubble) - 4
	if marginLeft < 0 {
		marginLeft = 0
	}

	return lipgloss.NewStyle().
		MarginLeft(marginLeft).
		MarginTop(1).
		MarginBottom(1).
		Render(bubble)
}

// renderAssistantTurn renders a left-aligned assistant bubble, splitting
// fenced code out for syntax highlighting. Failed replies render as error
// bubbles. Streaming replies carry a trailing cursor.
func (m Model) renderAssistantTurn(turn model.Turn) string {
	if turn.Text == "" && !turn.Streaming {
		return ""
	}
	if turn.Text == "" && turn.Streaming && m.thinking.IsActive() {
		return "" // the thinking line stands in until the first chunk
	}

	width := m.viewport.Width
	if width == 0 {
		width = 80
	}

	maxWidth := width - 8
	if maxWidth > width-2 {
		maxWidth = width - 2
	}
	if maxWidth < 10 {
		maxWidth = 10
	}
	wrapWidth := maxWidth - 4
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	content := turn.Text
	if turn.Streaming {
		if content == "" {
			content = "_"
		} else {
			content += lipgloss.NewStyle().
				Foreground(styles.Purple).
				Blink(true).
				Render("_")
		}
	}

	var rendered string
	switch {
	case turn.Failed:
		text := wrapText(styles.StatusIndicators.Error+" "+turn.Text, wrapWidth)
		rendered = m.theme.ErrorBubble.MaxWidth(maxWidth).Render(text)
	case strings.Contains(content, "```"):
		rendered = m.renderContentWithCodeBlocks(content, maxWidth)
	default:
		rendered = m.theme.AssistantBubble.MaxWidth(maxWidth).Render(wrapText(content, wrapWidth))
	}

	if !turn.Streaming && turn.Stats != nil {
		rendered += "\n" + m.renderStats(turn)
	}

	return lipgloss.NewStyle().
		MarginTop(1).
		MarginBottom(1).
		MarginLeft(2).
		Render(rendered)
}

// renderContentWithCodeBlocks splits fenced code out of a reply and renders
// each run as its own block: prose in assistant bubbles, code in highlighted
// code blocks.
func (m Model) renderContentWithCodeBlocks(content string, maxWidth int) string {
	var parts []string

	wrapWidth := maxWidth - 4
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	textBubble := func(text string) {
		text = strings.TrimRight(text, "\n")
		if text == "" {
			return
		}
		parts = append(parts, m.theme.AssistantBubble.MaxWidth(maxWidth).Render(wrapText(text, wrapWidth)))
	}
	codeBlock := func(language, code string) {
		cb := components.NewCodeBlock(language, code)
		cb.SetMaxWidth(maxWidth)
		parts = append(parts, cb.Render())
	}

	var (
		textLines []string
		codeLines []string
		language  string
		inCode    bool
	)

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "```") {
			if inCode {
				codeBlock(language, strings.Join(codeLines, "\n"))
				codeLines = nil
				inCode = false
			} else {
				textBubble(strings.Join(textLines, "\n"))
				textLines = nil
				language = strings.TrimSpace(strings.TrimPrefix(line, "```"))
				inCode = true
			}
			continue
		}

		if inCode {
			codeLines = append(codeLines, line)
		} else {
			textLines = append(textLines, line)
		}
	}

	if inCode {
		// Unclosed fence, common mid-stream: render what arrived as code
		// once any lines exist, otherwise show the fence line as text.
		if len(codeLines) > 0 {
			codeBlock(language, strings.Join(codeLines, "\n"))
		} else {
			textBubble("```" + language)
		}
	} else {
		textBubble(strings.Join(textLines, "\n"))
	}

	return strings.Join(parts, "\n")
}

// renderStats renders the metadata line under a settled reply.
func (m Model) renderStats(turn model.Turn) string {
	parts := []string{formatTimestamp(turn.CreatedAt)}

	if turn.Stats != nil {
		if d := turn.Stats.Duration(); d > 0 {
			parts = append(parts, formatDuration(d))
		}
		if turn.Stats.Chunks > 0 {
			parts = append(parts, strconv.Itoa(turn.Stats.Chunks)+" chunks")
		}
	}

	return lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true).
		PaddingLeft(2).
		Render(strings.Join(parts, " | "))
}

// renderThinking renders the pre-first-chunk spinner line.
func (m Model) renderThinking() string {
	return lipgloss.NewStyle().
		MarginTop(1).
		MarginLeft(2).
		Render(m.thinking.View())
}

// renderEmptyState fills the transcript area before the first turn.
func (m Model) renderEmptyState() string {
	width := m.viewport.Width
	if width == 0 {
		width = 80
	}
	emptyWidth := width - 8
	if emptyWidth > 80 {
		emptyWidth = 80
	}
	if emptyWidth < 40 {
		emptyWidth = 40
	}

	modelName := m.modelName
	if modelName == "" {
		modelName = "no model selected"
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.Purple).
		Render("ricky")
	tagline := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render(" - chat with " + modelName)
	hint := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Render("Type a message and press enter to start.")
	keys := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render("tab cycles models | ctrl+l clears | esc stops | ctrl+c quits")

	lines := []string{
		"",
		title + tagline,
		"",
		hint,
		"",
		keys,
	}

	return lipgloss.NewStyle().
		Width(emptyWidth).
		MarginLeft(2).
		MarginTop(1).
		Render(strings.Join(lines, "\n"))
}

// =============================================================================
// INPUT AREA
// =============================================================================

// renderInput renders the input area: separator, textarea, char count. The
// block is forced to a fixed height so the layout constants in recalcLayout
// hold.
func (m Model) renderInput() string {
	width := m.width
	if width == 0 {
		width = 80
	}

	borderColor := styles.FocusRingDim
	if m.input.Focused() {
		borderColor = styles.FocusRing
	}

	separator := lipgloss.NewStyle().
		Foreground(borderColor).
		Render(strings.Repeat("─", width))

	block := lipgloss.JoinVertical(
		lipgloss.Left,
		separator,
		m.input.View(),
		m.renderCharCount(),
	)

	return lipgloss.NewStyle().
		Height(5).
		MaxHeight(5).
		Render(block)
}

// renderCharCount renders the "used / limit" line under the textarea.
func (m Model) renderCharCount() string {
	count := m.input.Length()
	limit := m.input.CharLimit

	color := styles.TextMuted
	if limit > 0 {
		percent := count * 100 / limit
		switch {
		case percent >= 90:
			color = styles.Rose
		case percent >= 75:
			color = styles.Amber
		}
	}

	width := m.width - 4
	if width < 10 {
		width = 10
	}

	return lipgloss.NewStyle().
		Foreground(color).
		Width(width).
		Align(lipgloss.Right).
		Padding(0, 2).
		Render(strconv.Itoa(count) + " / " + strconv.Itoa(limit))
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	return m.statusBar.View()
}
