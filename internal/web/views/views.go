// Package views renders the dashboard's HTML as templ components.
package views

//go:generate templ generate

import (
	"fmt"
	"strconv"

	"github.com/JonMunkholm/cseguard/internal/core"
)

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func recordCount(n int) string {
	return strconv.Itoa(n) + " " + pluralize(n, "record", "records")
}

func dismissAfterMS(out core.Outcome) string {
	return strconv.FormatInt(out.DismissAfter.Duration().Milliseconds(), 10)
}

func domainRowID(id int64) string {
	return "domain-" + strconv.FormatInt(id, 10)
}

func formatBytes(n int64) string {
	switch {
	case n <= 0:
		return "unlimited"
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

const pageStyle = `<style>
body{font-family:system-ui,sans-serif;margin:2rem;max-width:64rem}
table.domains{border-collapse:collapse;width:100%}
table.domains td,table.domains th{border-bottom:1px solid #ddd;padding:.4rem;text-align:left}
.result,.toast,.alert{border-radius:4px;margin:.5rem 0;padding:.75rem}
.result-success,.toast-success{background:#e6f4ea}
.result-info,.toast-info{background:#e8f0fe}
.result-warning,.toast-warning{background:#fef7e0}
.alert-error,.toast-error{background:#fce8e6}
#toasts{position:fixed;right:1rem;top:1rem;width:22rem}
.toast p{white-space:pre-line;margin:.25rem 0}
</style>`

// toastScript renders notifications from the event stream. A toast with
// auto_dismiss set is removed after dismiss_after_ms; any other toast stays
// until closed. Swapped-in import results carrying data-dismiss-after are
// removed the same way.
const toastScript = `<script>
(function(){
  var box=document.getElementById("toasts");
  var es=new EventSource("/api/events");
  es.addEventListener("notification",function(e){
    var n=JSON.parse(e.data);
    var t=document.createElement("div");
    t.className="toast toast-"+n.level;
    var h=document.createElement("strong");h.textContent=n.title;t.appendChild(h);
    var p=document.createElement("p");p.textContent=n.message;t.appendChild(p);
    if(n.auto_dismiss){
      setTimeout(function(){t.remove();},n.dismiss_after_ms);
    }else{
      var c=document.createElement("button");c.textContent="Close";
      c.onclick=function(){t.remove();};t.appendChild(c);
    }
    box.appendChild(t);
    document.body.dispatchEvent(new Event("domains-changed"));
  });
  document.body.addEventListener("htmx:afterSwap",function(e){
    var r=e.detail.target.querySelector("[data-dismiss-after]");
    if(r){
      setTimeout(function(){r.remove();},parseInt(r.dataset.dismissAfter,10));
    }
  });
})();
</script>`
