package main

import "html/template"

var funcMap = template.FuncMap{
	// convert interface{} (int64/float/int) to float64
	"f64": func(n any) float64 {
		switch v := n.(type) {
		case int64:
			return float64(v)
		case int:
			return float64(v)
		case float64:
			return v
		default:
			return 0
		}
	},
	"div": func(a, b float64) float64 { return a / b },
}

var page = template.Must(template.New("index").Funcs(funcMap).Parse(`
<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>Fusion PDF</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <style>
    :root { --bg:#fff; --fg:#111; --muted:#666; --border:#eee; }
    * { box-sizing: border-box; }
    body { font-family: system-ui, -apple-system, Segoe UI, Roboto, sans-serif; margin: 24px; color: var(--fg); background: var(--bg); }
    h1 { margin-top: 0; font-size: 22px; }
    .wrap { display: grid; grid-template-columns: 1fr 360px; gap: 24px; }
    .drop { border: 2px dashed #ddd; border-radius: 12px; padding: 28px; text-align: center; color: var(--muted); cursor: pointer; margin-bottom: 14px; }
    .drop.over { border-color: #111; color: #111; }
    .fileRow { display:flex; gap:10px; align-items:center; border:1px solid var(--border); border-radius:10px; padding:10px 12px; margin-bottom:8px; background:#fff; cursor:grab; }
    .fileRow.dragging { opacity:.5; }
    .fileRow.dragover { border-top: 3px solid #111; }
    .handle { color:#aaa; cursor:grab; }
    .name { font-weight:600; font-size:14px; flex:1; min-width:0; overflow:hidden; text-overflow:ellipsis; white-space:nowrap; }
    .muted { color: var(--muted); font-size: 12px; }
    .badge { background:#f2f2f2; border:1px solid #e6e6e6; border-radius:999px; padding:2px 8px; font-size:11px; color:#444; }
    .btn { padding: 10px 14px; border: 0; background: #111; color: #fff; border-radius: 8px; cursor: pointer; }
    .btn:disabled { opacity: .5; cursor: not-allowed; }
    .btn.small { padding:5px 9px; font-size:12px; }
    .btn.danger { background:#c0392b; }
    .side { position: sticky; top: 20px; height: fit-content; }
    iframe, img.pv { width:100%; height:420px; border:1px solid var(--border); border-radius:8px; object-fit:contain; }
    @media (max-width: 900px) {
      .wrap { grid-template-columns: 1fr; }
      .side { position: static; }
    }
  </style>
</head>
<body>
  <h1>Fusion PDF</h1>

  <div class="wrap">
    <div>
      <div id="drop" class="drop">
        Drop PDF / PNG / JPEG files here, or click to pick.
        <input id="fileInput" type="file" multiple accept=".pdf,.png,.jpg,.jpeg" style="display:none">
      </div>

      <div id="list">
        {{range .Files}}
        <div class="fileRow" draggable="true" data-id="{{.ID}}">
          <span class="handle">&#x22EE;&#x22EE;</span>
          <span class="name" title="{{.Name}}">{{.Name}}</span>
          <span class="badge">{{.Kind}}</span>
          <span class="muted">{{printf "%.2f" (div (f64 .Size) 1048576.0)}} MB</span>
          <button type="button" class="btn small previewBtn">Preview</button>
          <button type="button" class="btn small danger removeBtn">Remove</button>
        </div>
        {{end}}
      </div>
      <div class="muted">Drag rows to set the page order of the merged document.</div>
    </div>

    <div class="side">
      <h3>Output</h3>
      <button id="mergeBtn" class="btn" {{if not .Files}}disabled{{end}}>Merge files</button>
      <div id="status" style="margin-top:12px;"></div>

      <hr>
      <h3>Preview</h3>
      <iframe id="previewFrame" src="" title="Preview"></iframe>
    </div>
  </div>

<script>
  const drop = document.getElementById('drop');
  const input = document.getElementById('fileInput');
  const list = document.getElementById('list');
  const status = document.getElementById('status');

  function fail(msg) { status.innerHTML = '<span style="color:#c00">' + msg + '</span>'; }

  async function upload(files) {
    if (!files.length) return;
    const fd = new FormData();
    for (const f of files) fd.append('files', f);
    status.textContent = 'Uploading...';
    const resp = await fetch('/upload', { method: 'POST', body: fd });
    if (!resp.ok) {
      const data = await resp.json().catch(() => ({}));
      fail(data.error || 'upload failed');
      return;
    }
    location.reload();
  }

  drop.addEventListener('click', () => input.click());
  input.addEventListener('change', (e) => upload(e.target.files));
  drop.addEventListener('dragover', (e) => { e.preventDefault(); drop.classList.add('over'); });
  drop.addEventListener('dragleave', () => drop.classList.remove('over'));
  drop.addEventListener('drop', (e) => {
    e.preventDefault();
    drop.classList.remove('over');
    upload(e.dataTransfer.files);
  });

  // ---- row drag reorder ----
  let dragged = null;

  list.addEventListener('dragstart', (e) => {
    const row = e.target.closest('.fileRow');
    if (!row) return;
    dragged = row;
    row.classList.add('dragging');
    e.dataTransfer.effectAllowed = 'move';
  });

  list.addEventListener('dragover', (e) => {
    e.preventDefault();
    const row = e.target.closest('.fileRow');
    if (!row || row === dragged) return;
    row.classList.add('dragover');
  });

  list.addEventListener('dragleave', (e) => {
    const row = e.target.closest('.fileRow');
    if (row) row.classList.remove('dragover');
  });

  list.addEventListener('drop', async (e) => {
    e.preventDefault();
    const row = e.target.closest('.fileRow');
    if (!row || !dragged || row === dragged) return;
    row.classList.remove('dragover');
    const rows = Array.from(list.querySelectorAll('.fileRow'));
    if (rows.indexOf(dragged) < rows.indexOf(row)) {
      row.after(dragged);
    } else {
      row.before(dragged);
    }
    const order = Array.from(list.querySelectorAll('.fileRow')).map(r => r.dataset.id);
    const resp = await fetch('/reorder', {
      method: 'POST',
      headers: {'Content-Type': 'application/json'},
      body: JSON.stringify({ order })
    });
    if (!resp.ok) location.reload();
  });

  list.addEventListener('dragend', () => {
    if (dragged) dragged.classList.remove('dragging');
    dragged = null;
    list.querySelectorAll('.dragover').forEach(r => r.classList.remove('dragover'));
  });

  // ---- row buttons ----
  list.addEventListener('click', async (e) => {
    const row = e.target.closest('.fileRow');
    if (!row) return;
    if (e.target.classList.contains('previewBtn')) {
      document.getElementById('previewFrame').src = '/file?id=' + encodeURIComponent(row.dataset.id);
    }
    if (e.target.classList.contains('removeBtn')) {
      const resp = await fetch('/remove', {
        method: 'POST',
        headers: {'Content-Type': 'application/json'},
        body: JSON.stringify({ id: row.dataset.id })
      });
      if (resp.ok) row.remove(); else location.reload();
    }
  });

  // ---- merge ----
  document.getElementById('mergeBtn').addEventListener('click', async () => {
    document.getElementById('mergeBtn').disabled = true;
    status.textContent = 'Merging...';
    try {
      const resp = await fetch('/merge', { method: 'POST' });
      const data = await resp.json();
      if (resp.ok) {
        status.innerHTML = 'Done (' + data.pages + ' pages): <a href="' + data.download + '">' + data.name + '</a>';
        window.location = data.download;
      } else {
        fail((data.error || 'merge failed') + (data.file ? ' [' + data.file + ']' : ''));
      }
    } catch (e) {
      fail(String(e));
    } finally {
      document.getElementById('mergeBtn').disabled = false;
    }
  });
</script>
</body>
</html>
`))
