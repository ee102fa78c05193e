package mail

import "html/template"

var newLeadTemplate = template.Must(template.New("new_lead").Parse(`<h2>Novo lead recebido</h2>
<p><strong>{{.Name}}</strong> tem interesse em <strong>{{.Treatment}}</strong>.</p>
<ul>
  <li>Email: {{.Email}}</li>
  <li>Telefone: {{.Phone}}</li>
  {{if .Source}}<li>Origem: {{.Source}}</li>{{end}}
</ul>
{{if .Message}}<blockquote>{{.Message}}</blockquote>{{end}}
{{if .AdminURL}}<p><a href="{{.AdminURL}}/admin/leads/{{.LeadID}}">Abrir no painel</a></p>{{end}}
`))

var assignmentTemplate = template.Must(template.New("assignment").Parse(`<p>Olá, {{.OwnerName}}!</p>
<p>O lead <strong>{{.LeadName}}</strong> ({{.Treatment}}) foi atribuído a você{{if .AssignedBy}} por {{.AssignedBy}}{{end}}.</p>
<p>Telefone: {{.Phone}}</p>
{{if .AdminURL}}<p><a href="{{.AdminURL}}/admin/leads">Ver leads</a></p>{{end}}
`))
