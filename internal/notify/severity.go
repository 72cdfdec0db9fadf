package notify

// Severity je závažnost upozornění. Určuje barvu a nadpis.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// GenericTitle dostane upozornění s neznámou závažností.
const GenericTitle = "Notification"

// Known říká, zda jde o jednu ze čtyř podporovaných závažností.
func (s Severity) Known() bool {
	_, ok := severityStyles[s]
	return ok
}

type severityStyle struct {
	severity Severity
	title    string
	accent   string
}

var severityStyles = map[Severity]severityStyle{
	SeveritySuccess: {SeveritySuccess, "Success", "#2ecc71"},
	SeverityError:   {SeverityError, "Error", "#e74c3c"},
	SeverityWarning: {SeverityWarning, "Warning", "#f39c12"},
	SeverityInfo:    {SeverityInfo, "Info", "#3498db"},
}

// styleFor nikdy neselže: neznámá závažnost dostane vzhled "info" a obecný nadpis.
func styleFor(s Severity) severityStyle {
	if st, ok := severityStyles[s]; ok {
		return st
	}
	st := severityStyles[SeverityInfo]
	st.title = GenericTitle
	return st
}

// styles se vkládá do stránky jednou za session.
// Barvy pozadí/rámečku/textu jsou CSS proměnné definované tématem stránky.
const styles = `
#notification-container { position: fixed; top: 1rem; right: 1rem; z-index: 1000; display: flex; flex-direction: column; gap: .5rem; }
.notification { min-width: 260px; padding: .75rem 1rem; border-radius: 6px; border-left: 4px solid var(--notification-accent);
  background: var(--card-bg); color: var(--text-color); border-color: var(--border-color);
  box-shadow: 0 2px 8px rgba(0,0,0,.15); animation: notification-in .3s ease-out; transition: opacity .3s, transform .3s; }
.notification.leaving { opacity: 0; transform: translateX(100%); }
@keyframes notification-in { from { opacity: 0; transform: translateX(100%); } to { opacity: 1; transform: translateX(0); } }
`
