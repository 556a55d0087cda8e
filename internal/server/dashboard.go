package server

// DashboardHTML is the embedded single-page monitor. It connects via
// WebSocket and shows capture and replay progress in real time.
const DashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Rewind Monitor</title>
<style>
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, monospace;
    background: #0d1117; color: #c9d1d9; padding: 20px;
  }
  h1 { color: #58a6ff; margin-bottom: 4px; font-size: 1.5em; }
  .subtitle { color: #8b949e; margin-bottom: 20px; font-size: 0.9em; }
  .status-bar {
    display: flex; gap: 20px; margin-bottom: 20px; padding: 12px 16px;
    background: #161b22; border: 1px solid #30363d; border-radius: 6px;
  }
  .status-item { display: flex; flex-direction: column; }
  .status-label { font-size: 0.75em; color: #8b949e; text-transform: uppercase; }
  .status-value { font-size: 1.1em; font-weight: 600; }
  .status-value.connected { color: #3fb950; }
  .status-value.disconnected { color: #f85149; }
  .stats {
    display: grid; grid-template-columns: repeat(auto-fit, minmax(150px, 1fr));
    gap: 12px; margin-bottom: 20px;
  }
  .stat-card {
    background: #161b22; border: 1px solid #30363d; border-radius: 6px;
    padding: 16px; text-align: center;
  }
  .stat-number { font-size: 2em; font-weight: 700; color: #58a6ff; }
  .stat-label { font-size: 0.8em; color: #8b949e; margin-top: 4px; }
  .event-log {
    background: #161b22; border: 1px solid #30363d; border-radius: 6px;
    max-height: 500px; overflow-y: auto;
  }
  .event-header {
    padding: 12px 16px; border-bottom: 1px solid #30363d;
    font-weight: 600; color: #58a6ff; position: sticky; top: 0;
    background: #161b22;
  }
  .event-row {
    display: grid; grid-template-columns: 140px 160px 140px 1fr;
    padding: 6px 16px; border-bottom: 1px solid #21262d; font-size: 0.85em;
  }
  .type-capture { color: #d2a8ff; }
  .type-replay { color: #3fb950; }
  .type-failed { color: #f85149; }
  .time-cell { color: #8b949e; }
</style>
</head>
<body>
<h1>Rewind Monitor</h1>
<p class="subtitle">Live capture and replay progress</p>

<div class="status-bar">
  <div class="status-item">
    <span class="status-label">Connection</span>
    <span class="status-value disconnected" id="conn-status">Disconnected</span>
  </div>
  <div class="status-item">
    <span class="status-label">Session</span>
    <span class="status-value" id="session">-</span>
  </div>
</div>

<div class="stats">
  <div class="stat-card"><div class="stat-number" id="stat-records">0</div><div class="stat-label">Records</div></div>
  <div class="stat-card"><div class="stat-number" id="stat-bytes">0</div><div class="stat-label">Bytes</div></div>
  <div class="stat-card"><div class="stat-number" id="stat-outcome">-</div><div class="stat-label">Outcome</div></div>
</div>

<div class="event-log">
  <div class="event-header">Events (state frames are sampled)</div>
  <div id="events"></div>
</div>

<script>
const eventsDiv = document.getElementById('events');
const MAX_EVENTS = 200;
let frameCount = 0;

function connect() {
  const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
  const ws = new WebSocket(proto + '//' + location.host + '/ws');
  ws.onopen = () => setConn(true);
  ws.onclose = () => { setConn(false); setTimeout(connect, 2000); };
  ws.onmessage = (e) => addEvent(JSON.parse(e.data));
}

function setConn(ok) {
  const el = document.getElementById('conn-status');
  el.textContent = ok ? 'Connected' : 'Disconnected';
  el.className = 'status-value ' + (ok ? 'connected' : 'disconnected');
}

function addEvent(ev) {
  document.getElementById('stat-records').textContent = ev.records;
  document.getElementById('stat-bytes').textContent = ev.bytes;
  if (ev.session_id) document.getElementById('session').textContent = ev.session_id.slice(0, 8);
  if (ev.outcome) document.getElementById('stat-outcome').textContent = ev.outcome;

  if (ev.kind === 'fighter_state' && (ev.type.endsWith('.record')) && (frameCount++ % 60 !== 0)) return;

  const row = document.createElement('div');
  row.className = 'event-row';
  const cls = ev.error ? 'type-failed' : ev.type.startsWith('capture') ? 'type-capture' : 'type-replay';
  const time = new Date(ev.time).toLocaleTimeString('en-US', {hour12: false, fractionalSecondDigits: 3});
  const detail = ev.error ? ev.error : ('records=' + ev.records + ' delay=' + ev.delay_ms + 'ms');
  row.innerHTML =
    '<span class="time-cell">' + time + '</span>' +
    '<span class="' + cls + '">' + escHtml(ev.type) + '</span>' +
    '<span>' + escHtml(ev.kind) + '</span>' +
    '<span>' + escHtml(detail) + '</span>';
  eventsDiv.insertBefore(row, eventsDiv.firstChild);
  while (eventsDiv.children.length > MAX_EVENTS) eventsDiv.removeChild(eventsDiv.lastChild);
}

function escHtml(s) {
  const d = document.createElement('div');
  d.textContent = s;
  return d.innerHTML;
}

connect();
</script>
</body>
</html>`
