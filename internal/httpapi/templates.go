package httpapi

import _ "embed"

//go:embed templates/shell.tmpl
var shellTemplateHTML string

//go:embed templates/board.tmpl
var boardTemplateHTML string

//go:embed templates/board_script.tmpl
var boardScriptTemplateHTML string

//go:embed templates/edit_mode_control.tmpl
var editModeControlTemplateHTML string

//go:embed templates/manage_home.tmpl
var manageHomeTemplateHTML string

//go:embed templates/manage_users.tmpl
var manageUsersTemplateHTML string

//go:embed templates/manage_invites.tmpl
var manageInvitesTemplateHTML string
