package table

import (
    "fmt"
    "strings"

    tea "github.com/charmbracelet/bubbletea/v2"
    "github.com/charmbracelet/lipgloss/v2"
    "github.com/muesli/reflow/truncate"
)

// BigTable is orca's resource grid: a windowed, selection-stable table that
// renders only the rows visible in the current viewport, independent of how
// many rows the active ResourceTable holds. It owns no Kubernetes semantics
// of its own, only cursor, window, and column-width bookkeeping over
// whatever List it is given.
type BigTable struct {
    list List

    w, h int

    desired []int // column width hints from the header
    widths  []int // widths actually rendered this frame

    top       int // absolute index of the first rendered row
    cursor    int // absolute index of the focused row
    focusedID string

    headerTitles []string
    headerStyle  lipgloss.Style
    footerStyle  lipgloss.Style
    cursorStyle  lipgloss.Style
}

// NewBigTable builds a BigTable bound to cols' header and list's rows, sized
// to w columns by h rows including the header and footer line.
func NewBigTable(cols []Column, list List, w, h int) BigTable {
    titles := make([]string, len(cols))
    desired := make([]int, len(cols))
    for i, c := range cols {
        titles[i] = c.Title
        if c.Width <= 0 {
            c.Width = 14
        }
        desired[i] = c.Width
    }
    bt := BigTable{
        list:         list,
        w:            max(20, w),
        h:            max(6, h),
        desired:      desired,
        headerTitles: titles,
        headerStyle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8AFF80")),
        footerStyle:  lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("#7D7D7D")),
        cursorStyle:  lipgloss.NewStyle().Background(lipgloss.Color("12")).Foreground(lipgloss.Color("0")),
    }
    bt.widths = computeFitWidths(bt.w, desired, 3)
    bt.rebuildWindow()
    return bt
}

// SetSize resizes the viewport and recomputes column widths to fit.
func (m *BigTable) SetSize(w, h int) {
    if w < 20 {
        w = 20
    }
    if h < 6 {
        h = 6
    }
    m.w, m.h = w, h
    m.widths = computeFitWidths(m.w, m.desired, 3)
    m.rebuildWindow()
}

// SetList swaps the data provider and repositions the cursor according to
// the focused row ID. If the focused row disappeared, the cursor moves to the
// next row; if none, to the previous; otherwise it clamps within bounds.
func (m *BigTable) SetList(list List) {
    m.list = list
    m.repositionOnDataChange()
    m.rebuildWindow()
}

// CurrentID returns the focused row ID, if any.
func (m *BigTable) CurrentID() (string, bool) {
    if row := m.list.Lines(m.cursor, 1); len(row) == 1 {
        id, _, _, ok := row[0].Columns()
        return id, ok
    }
    return "", false
}

// Update applies a navigation key to the cursor. Only the keys
// internal/runtime's navigate helper synthesizes are handled; anything else
// is ignored, since BigTable owns no text-entry state of its own.
func (m *BigTable) Update(msg tea.Msg) {
    km, ok := msg.(tea.KeyMsg)
    if !ok {
        return
    }
    switch km.String() {
    case "up", "k":
        if m.cursor > 0 {
            m.cursor--
            if m.cursor < m.top {
                m.top = m.cursor
            }
        }
    case "down", "j":
        if m.cursor+1 < m.list.Len() {
            m.cursor++
            if h := m.visibleRows(); m.cursor >= m.top+h {
                m.top = m.cursor - (h - 1)
            }
        }
    case "pgup":
        h := m.visibleRows()
        m.cursor -= h
        if m.cursor < 0 {
            m.cursor = 0
        }
        if m.cursor < m.top {
            m.top = m.cursor
        }
    case "pgdown":
        h := m.visibleRows()
        m.cursor += h
        if n := m.list.Len(); m.cursor >= n {
            m.cursor = n - 1
        }
        if m.cursor >= m.top+h {
            m.top = max(0, m.cursor-(h-1))
        }
    case "home":
        m.cursor, m.top = 0, 0
    case "end":
        if n := m.list.Len(); n > 0 {
            m.cursor = n - 1
            m.top = max(0, n-m.visibleRows())
        }
    default:
        return
    }
    m.rebuildWindow()
}

func (m *BigTable) visibleRows() int {
    h := m.h - 2 // header + footer
    if h < 1 {
        h = 1
    }
    return h
}

// View renders the header, the current row window, and a footer carrying the
// cursor position within the full row count.
func (m *BigTable) View() string {
    var b strings.Builder
    b.WriteString(m.headerStyle.Render(m.renderHeader()))
    b.WriteString("\n")

    h := m.visibleRows()
    window := m.list.Lines(m.top, h)
    for i, row := range window {
        if i > 0 {
            b.WriteString("\n")
        }
        b.WriteString(m.renderRow(row, m.top+i == m.cursor))
    }
    for i := len(window); i < h; i++ {
        b.WriteString("\n")
    }
    b.WriteString("\n")
    b.WriteString(m.footerStyle.Render(m.footer()))
    return b.String()
}

func (m *BigTable) renderHeader() string {
    cells := make([]string, len(m.headerTitles))
    for i, t := range m.headerTitles {
        w := 14
        if i < len(m.widths) {
            w = m.widths[i]
        }
        cells[i] = asciiTruncatePad(t, w)
    }
    return strings.Join(cells, " ")
}

func (m *BigTable) renderRow(row Row, focused bool) string {
    _, cells, styles, _ := row.Columns()
    out := make([]string, len(m.widths))
    for c := range m.widths {
        text := ""
        if c < len(cells) {
            text = cells[c]
        }
        text = asciiTruncatePad(text, m.widths[c])
        st := lipgloss.NewStyle()
        if focused {
            st = m.cursorStyle
        } else if c < len(styles) && styles[c] != nil {
            st = *styles[c]
        }
        out[c] = st.Render(text)
    }
    return strings.Join(out, " ")
}

func (m *BigTable) footer() string {
    n := m.list.Len()
    if n == 0 {
        return "0/0"
    }
    return fmt.Sprintf("%d/%d", m.cursor+1, n)
}

// rebuildWindow clamps top/cursor to the current list bounds after a resize
// or a data-provider swap.
func (m *BigTable) rebuildWindow() {
    n := m.list.Len()
    if n < 0 {
        n = 0
    }
    if m.cursor >= n {
        m.cursor = max(0, n-1)
    }
    h := m.visibleRows()
    maxTop := max(0, n-h)
    if m.top > maxTop {
        m.top = maxTop
    }
    if m.cursor < m.top {
        m.top = m.cursor
    }
    if m.cursor >= m.top+h {
        m.top = max(0, m.cursor-(h-1))
    }
    if row := m.list.Lines(m.cursor, 1); len(row) == 1 {
        if id, _, _, ok := row[0].Columns(); ok {
            m.focusedID = id
        }
    }
}

// repositionOnDataChange keeps the cursor stable by ID. If the previous
// focused row vanished, move to the next row; if none, to the previous; else
// clamp to bounds.
func (m *BigTable) repositionOnDataChange() {
    n := m.list.Len()
    if n <= 0 {
        m.cursor, m.top, m.focusedID = 0, 0, ""
        return
    }
    if m.focusedID == "" {
        if m.cursor >= n {
            m.cursor = n - 1
        }
        if m.cursor < 0 {
            m.cursor = 0
        }
        return
    }
    if idx, _, ok := m.list.Find(m.focusedID); ok {
        m.cursor = idx
        return
    }
    if below := m.list.Below(m.focusedID, 1); len(below) > 0 {
        if id, _, _, ok := below[0].Columns(); ok {
            if idx, _, ok := m.list.Find(id); ok {
                m.cursor, m.focusedID = idx, id
                return
            }
        }
    }
    if above := m.list.Above(m.focusedID, 1); len(above) > 0 {
        if id, _, _, ok := above[len(above)-1].Columns(); ok {
            if idx, _, ok := m.list.Find(id); ok {
                m.cursor, m.focusedID = idx, id
                return
            }
        }
    }
    if m.cursor >= n {
        m.cursor = n - 1
    }
    if m.cursor < 0 {
        m.cursor = 0
    }
}

// computeFitWidths distributes total among desired widths proportionally,
// shrinking every column (never below minCol) when the sum doesn't fit.
func computeFitWidths(total int, desired []int, minCol int) []int {
    n := len(desired)
    if n == 0 {
        return nil
    }
    if minCol < 1 {
        minCol = 1
    }
    sumDesired := 0
    for _, d := range desired {
        if d < minCol {
            d = minCol
        }
        sumDesired += d
    }
    if sumDesired <= total {
        out := make([]int, n)
        for i, d := range desired {
            out[i] = max(d, minCol)
        }
        return out
    }
    out := make([]int, n)
    base := 0
    for i, d := range desired {
        if d < minCol {
            d = minCol
        }
        q := d * total / sumDesired
        if q < minCol {
            q = minCol
        }
        out[i] = q
        base += q
    }
    rem := total - base
    for rem > 0 {
        for i := range out {
            if rem == 0 {
                break
            }
            out[i]++
            rem--
        }
    }
    return out
}

// asciiTruncatePad truncates s to at most w display columns, appending an
// ASCII ellipsis when it doesn't fit, then pads with spaces to exactly w.
func asciiTruncatePad(s string, w int) string {
    if w <= 0 {
        return ""
    }
    if lipgloss.Width(s) <= w {
        if pad := w - lipgloss.Width(s); pad > 0 {
            return s + strings.Repeat(" ", pad)
        }
        return s
    }
    if w <= 3 {
        return strings.Repeat(".", w)
    }
    out := truncate.StringWithTail(s, uint(w), "...")
    if pad := w - lipgloss.Width(out); pad > 0 {
        out += strings.Repeat(" ", pad)
    }
    return out
}

func max(a, b int) int {
    if a > b {
        return a
    }
    return b
}
