package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Sey56/Paracore-sub001/internal/execution"
	"github.com/Sey56/Paracore-sub001/internal/fancy"
	"github.com/Sey56/Paracore-sub001/internal/script"
	"github.com/Sey56/Paracore-sub001/internal/script/rules"
)

const defaultGroup = "General"

func formatFloat(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'g', -1, 64)
}

func parameterNode(p script.Parameter) *fancy.ComponentTree {
	node := fancy.ParameterTree(p.Name, string(p.Type))
	if p.Description != "" {
		node.AddChild(p.Description)
	}
	node.AddChild("default: " + p.DefaultValueJSON)
	if p.IsRequired {
		node.AddChild(fancy.ErrorText("required"))
	}
	if len(p.Options) > 0 {
		node.AddChild("options: " + strings.Join(p.Options, ", "))
	} else if p.RequiresCompute {
		node.AddChild(fmt.Sprintf("options: %s", fancy.InfoStyle.Render("computed")))
	}
	if p.Min != nil || p.Max != nil {
		node.AddChild(fmt.Sprintf("range: %s..%s step %s", formatFloat(p.Min), formatFloat(p.Max), formatFloat(p.Step)))
	}
	if p.Unit != "" {
		node.AddChild("unit: " + p.Unit)
	}
	if p.IsRevitElement {
		node.AddChild(fmt.Sprintf("element: %s %s", p.RevitElementType, p.RevitElementCategory))
	}
	if p.VisibleWhen != "" {
		node.AddChild("visible when " + p.VisibleWhen)
	}
	if p.EnabledWhen != "" {
		node.AddChild("enabled when " + p.EnabledWhen)
	}
	return node
}

// parametersTree renders parameters grouped in declaration order.
func parametersTree(title string, ps []script.Parameter) string {
	t := fancy.Tree()
	t.Root(fancy.RootStyle.Render(title) + " " + fancy.CountText(fmt.Sprintf("(%d parameters)", len(ps))))

	var order []string
	groups := make(map[string][]script.Parameter)
	for _, p := range ps {
		g := p.Group
		if g == "" {
			g = defaultGroup
		}
		if _, ok := groups[g]; !ok {
			order = append(order, g)
		}
		groups[g] = append(groups[g], p)
	}

	for _, g := range order {
		branch := fancy.BranchNode(g, fmt.Sprintf("(%d)", len(groups[g])))
		for _, p := range groups[g] {
			branch.Child(parameterNode(p).Tree())
		}
		t.Child(branch)
	}
	return t.String()
}

func metadataTree(md script.Metadata) string {
	title := md.Name
	if title == "" {
		title = "Script"
	}
	t := fancy.Tree()
	t.Root(fancy.RootStyle.Render(title))
	add := func(label, value string) {
		if value != "" {
			t.Child(fmt.Sprintf("%s: %s", fancy.SectionText(label), value))
		}
	}
	add("Description", md.Description)
	add("Author", md.Author)
	add("Website", md.Website)
	add("Version", md.Version)
	add("Document", string(md.DocumentType))
	add("Categories", strings.Join(md.Categories, ", "))
	add("Dependencies", strings.Join(md.Dependencies, ", "))
	add("Last run", md.LastRun)
	if len(md.UsageExamples) > 0 {
		examples := fancy.SectionTree("Usage")
		for _, ex := range md.UsageExamples {
			examples.AddChild(ex)
		}
		t.Child(examples.Tree())
	}
	return t.String()
}

func rulesTree(states []rules.State) string {
	t := fancy.Tree()
	t.Root(fancy.RootStyle.Render("Parameter states"))
	for _, st := range states {
		flags := []string{flagText("visible", st.Visible), flagText("enabled", st.Enabled)}
		if st.VisibleComputed || st.EnabledComputed {
			flags = append(flags, fancy.InfoStyle.Render("computed"))
		}
		line := fancy.ParameterText(st.Name) + " " + strings.Join(flags, " ")
		if st.Error != "" {
			line += " " + fancy.ErrorText(st.Error)
		}
		t.Child(line)
	}
	return t.String()
}

func flagText(name string, on bool) string {
	if on {
		return fancy.ValidText(name)
	}
	return fancy.ErrorText("!" + name)
}

func resultTree(res *execution.Result) string {
	t := fancy.Tree()
	t.Root(fancy.RootStyle.Render(res.ScriptName) + " " + fancy.StateText(res.State))
	t.Child(fmt.Sprintf("%s: %s", fancy.SectionText("Execution"), res.ExecutionID))
	t.Child(fmt.Sprintf("%s: %s", fancy.SectionText("Duration"), res.Duration))
	if res.ReadOnly {
		t.Child(fancy.InfoStyle.Render("read-only"))
	}
	if res.ErrorMessage != "" {
		errs := fancy.SectionTree("Error")
		errs.AddChild(fancy.ErrorText(res.ErrorMessage))
		for _, d := range res.ErrorDetails {
			errs.AddChild(d)
		}
		t.Child(errs.Tree())
	}
	if out := strings.TrimRight(res.Output, "\n"); out != "" {
		output := fancy.SectionTree("Output")
		for _, line := range strings.Split(out, "\n") {
			output.AddChild(line)
		}
		t.Child(output.Tree())
	}
	if len(res.StructuredOutput) > 0 {
		t.Child(fmt.Sprintf("%s: %d items", fancy.SectionText("Structured output"), len(res.StructuredOutput)))
	}
	if res.InternalData != "" {
		t.Child(fmt.Sprintf("%s: %s", fancy.SectionText("Working set"), fancy.TruncateString(res.InternalData, 80)))
	}
	return t.String()
}
