package httpapi

import (
	"bytes"
	"html/template"

	"github.com/temirov/GAuss/pkg/constants"

	"github.com/MarkoPoloResearchLab/homeboard/pkg/footer"
)

const (
	shellTemplateName = "shell"

	shellBrandName            = "Homeboard"
	shellExperimentalBanner   = "Experimental release: layouts and settings may change between versions."
	shellSearchPlaceholder    = "Search"
	shellMenuThemeLabel       = "Dark theme"
	shellMenuProfileLabel     = "Profile"
	shellMenuDefaultDashboard = "Default dashboard"
	shellMenuSignOutLabel     = "Sign out"
	shellMenuSignInLabel      = "Sign in"
	shellNavbarToggleLabel    = "Toggle navigation"
	shellNavbarCollapseID     = "shell-navbar-collapse"

	navLabelHome          = "Home"
	navLabelUsers         = "Users"
	navLabelManageUsers   = "Manage"
	navLabelInvites       = "Invites"
	navLabelHelp          = "Help"
	navLabelDocumentation = "Documentation"
	navLabelReportIssue   = "Report an issue"
	navLabelCommunity     = "Community"
	navLabelContribute    = "Contribute"

	footerElementID    = "shell-footer"
	footerBaseClass    = "border-top py-3 mt-auto"
	footerInnerClass   = "container-fluid d-flex flex-wrap gap-3 small text-body-secondary"
	footerBrandClass   = "link-secondary text-decoration-none"
	footerBrandText    = shellBrandName
	footerBrandURL     = "https://github.com/MarkoPoloResearchLab/homeboard"
	footerVersionClass = "font-monospace"
	footerVersionLabel = "Version"
	footerLinkClass    = "link-secondary"

	// ManagePath is the landing page of the administrative area.
	ManagePath = "/manage"
	// ManageUsersPath lists users who signed in.
	ManageUsersPath = "/manage/users"
	// ManageInvitesPath lists invite links.
	ManageInvitesPath = "/manage/users/invites"
)

// Section names the navbar entry highlighted on a page.
type Section string

const (
	SectionBoard   Section = "board"
	SectionHome    Section = "home"
	SectionUsers   Section = "users"
	SectionInvites Section = "invites"
)

// ShellConfig holds the links and version shown around every page.
type ShellConfig struct {
	DocumentationURL string
	IssuesURL        string
	CommunityURL     string
	ContributeURL    string
	PackageVersion   string
}

// ShellData is the per-request part of a page.
type ShellData struct {
	Title       string
	Section     Section
	CurrentUser *CurrentUser
	Content     template.HTML
	Scripts     template.HTML
}

type shellLink struct {
	Label    string
	URL      string
	Active   bool
	External bool
}

type shellGroup struct {
	Label  string
	Active bool
	Links  []shellLink
}

type shellTemplateData struct {
	ShellData
	BrandName          string
	ExperimentalBanner string
	SearchPlaceholder  string
	MenuThemeLabel     string
	MenuProfileLabel   string
	MenuDefaultBoard   string
	MenuSignOutLabel   string
	MenuSignInLabel    string
	NavbarToggleLabel  string
	NavbarCollapseID   string
	LogoutPath         string
	LoginPath          string
	HomeLink           shellLink
	Groups             []shellGroup
	FooterHTML         template.HTML
	HasUser            bool
	UserInitials       string
	UserDisplayName    string
}

// ShellRenderer wraps page content in the header, navbar and footer.
type ShellRenderer struct {
	template   *template.Template
	config     ShellConfig
	footerHTML template.HTML
}

func NewShellRenderer(config ShellConfig) (*ShellRenderer, error) {
	footerHTML, footerErr := footer.Render(footer.Config{
		ElementID:    footerElementID,
		BaseClass:    footerBaseClass,
		InnerClass:   footerInnerClass,
		BrandClass:   footerBrandClass,
		BrandText:    footerBrandText,
		BrandURL:     footerBrandURL,
		VersionClass: footerVersionClass,
		VersionLabel: footerVersionLabel,
		Version:      config.PackageVersion,
		LinkClass:    footerLinkClass,
		Links:        footerLinks(config),
	})
	if footerErr != nil {
		return nil, footerErr
	}

	return &ShellRenderer{
		template:   template.Must(template.New(shellTemplateName).Parse(shellTemplateHTML)),
		config:     config,
		footerHTML: footerHTML,
	}, nil
}

// Render returns the complete HTML document for data.
func (renderer *ShellRenderer) Render(data ShellData) ([]byte, error) {
	payload := shellTemplateData{
		ShellData:          data,
		BrandName:          shellBrandName,
		ExperimentalBanner: shellExperimentalBanner,
		SearchPlaceholder:  shellSearchPlaceholder,
		MenuThemeLabel:     shellMenuThemeLabel,
		MenuProfileLabel:   shellMenuProfileLabel,
		MenuDefaultBoard:   shellMenuDefaultDashboard,
		MenuSignOutLabel:   shellMenuSignOutLabel,
		MenuSignInLabel:    shellMenuSignInLabel,
		NavbarToggleLabel:  shellNavbarToggleLabel,
		NavbarCollapseID:   shellNavbarCollapseID,
		LogoutPath:         constants.LogoutPath,
		LoginPath:          constants.LoginPath,
		HomeLink:           shellLink{Label: navLabelHome, URL: ManagePath, Active: data.Section == SectionHome},
		Groups:             renderer.groups(data.Section),
		FooterHTML:         renderer.footerHTML,
	}
	if data.CurrentUser != nil {
		payload.HasUser = true
		payload.UserInitials = data.CurrentUser.Initials()
		payload.UserDisplayName = data.CurrentUser.Name
		if payload.UserDisplayName == "" {
			payload.UserDisplayName = data.CurrentUser.Email
		}
	}

	var buffer bytes.Buffer
	if err := renderer.template.Execute(&buffer, payload); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func (renderer *ShellRenderer) groups(section Section) []shellGroup {
	return []shellGroup{
		{
			Label:  navLabelUsers,
			Active: section == SectionUsers || section == SectionInvites,
			Links: []shellLink{
				{Label: navLabelManageUsers, URL: ManageUsersPath, Active: section == SectionUsers},
				{Label: navLabelInvites, URL: ManageInvitesPath, Active: section == SectionInvites},
			},
		},
		{
			Label: navLabelHelp,
			Links: externalLinks([]shellLink{
				{Label: navLabelDocumentation, URL: renderer.config.DocumentationURL},
				{Label: navLabelReportIssue, URL: renderer.config.IssuesURL},
				{Label: navLabelCommunity, URL: renderer.config.CommunityURL},
				{Label: navLabelContribute, URL: renderer.config.ContributeURL},
			}),
		},
	}
}

func footerLinks(config ShellConfig) []footer.Link {
	var links []footer.Link
	if config.DocumentationURL != "" {
		links = append(links, footer.Link{Label: navLabelDocumentation, URL: config.DocumentationURL})
	}
	if config.IssuesURL != "" {
		links = append(links, footer.Link{Label: navLabelReportIssue, URL: config.IssuesURL})
	}
	return links
}

// externalLinks drops unconfigured entries.
func externalLinks(candidates []shellLink) []shellLink {
	links := make([]shellLink, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.URL == "" {
			continue
		}
		candidate.External = true
		links = append(links, candidate)
	}
	return links
}
