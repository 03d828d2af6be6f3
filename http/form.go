package http

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

var formTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>House Price Predictor</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
form { display: grid; grid-template-columns: 1fr 1fr; gap: 0.8em 1.5em; }
label { display: flex; flex-direction: column; font-size: 0.9em; gap: 0.3em; }
button { grid-column: span 2; padding: 0.6em; font-size: 1em; }
#result { margin-top: 1.2em; font-size: 1.3em; font-weight: bold; }
#error { margin-top: 1.2em; color: #b00; }
</style>
</head>
<body>
<h1>House Price Predictor</h1>
<p>Numeric fields are scaled internally exactly like training. Leave
Landsize or Building Area at 0 when unknown.</p>
<form id="predict-form">
  <label>Suburb
    <select name="suburb">
    {{range .Suburbs}}<option>{{.}}</option>
    {{end}}</select>
  </label>
  <label>Type (h=house, t=townhouse, u=unit)
    <select name="type">
      <option>h</option><option>t</option><option>u</option>
    </select>
  </label>
  <label>Rooms <input type="number" name="rooms" min="1" max="10" value="3"></label>
  <label>Bathroom <input type="number" name="bathroom" min="1" max="6" value="1" step="1"></label>
  <label>Car <input type="number" name="car" min="0" max="6" value="1" step="1"></label>
  <label>Landsize (m&sup2;) <input type="number" name="landsize" min="0" max="5000" value="300" step="10"></label>
  <label>Building Area (m&sup2;) <input type="number" name="building_area" min="0" max="1000" value="120" step="10"></label>
  <label>Sale Year <input type="number" name="sale_year" min="2016" max="2018" value="2017"></label>
  <button type="submit">Predict</button>
</form>
<div id="result"></div>
<div id="error"></div>
<script>
document.getElementById('predict-form').addEventListener('submit', async (e) => {
  e.preventDefault();
  const result = document.getElementById('result');
  const error = document.getElementById('error');
  result.textContent = '';
  error.textContent = '';
  const resp = await fetch('/api/predict', {
    method: 'POST',
    body: new URLSearchParams(new FormData(e.target)),
  });
  const body = await resp.json();
  if (!resp.ok) {
    error.textContent = body.error || 'prediction failed';
    return;
  }
  result.textContent = 'Estimated Price: ' + body.formatted;
});
</script>
</body>
</html>
`))

// handleForm renders the prediction form with the trained suburb list.
func (s *Service) handleForm(w http.ResponseWriter, r *http.Request) {
	bundle := s.source.Bundle()
	suburbs := bundle.AllSuburbs
	if len(suburbs) == 0 {
		suburbs = []string{"Unknown"}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := formTemplate.Execute(w, map[string]interface{}{"Suburbs": suburbs}); err != nil {
		s.logger.Error("form render failed", zap.Error(err))
	}
}
