package outreach

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseCustomFields decodes a lead's custom_fields JSON object into a flat
// string map. Non-string values are stringified; malformed payloads yield
// an empty map.
func ParseCustomFields(raw []byte) map[string]string {
	out := make(map[string]string)
	if len(raw) == 0 {
		return out
	}
	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return out
	}
	for k, v := range generic {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
			out[k] = ""
		default:
			out[k] = fmt.Sprintf("%v", val)
		}
	}
	return out
}

// BuildVariables merges lead, inbox, and custom fields into the template
// variable map. Every key is stored in both camelCase and snake_case so
// templates may use either form.
func BuildVariables(lead *Lead, inbox *Inbox) map[string]string {
	vars := make(map[string]string, 32)

	put := func(camel, val string) {
		vars[camel] = val
		vars[toSnake(camel)] = val
	}

	if lead != nil {
		first := lead.FirstName.String
		last := lead.LastName.String
		put("firstName", first)
		put("lastName", last)
		put("fullName", strings.TrimSpace(first+" "+last))
		put("email", lead.Email)
		put("company", lead.Company.String)
		put("title", lead.Title.String)
		put("phone", lead.Phone.String)
		put("linkedinUrl", lead.LinkedinURL.String)
		put("website", lead.Website.String)
		put("country", lead.Country.String)
		put("city", lead.City.String)
		for k, v := range lead.CustomFields {
			put(k, v)
		}
	}

	if inbox != nil {
		put("senderFirstName", inbox.SenderFirstName.String)
		put("senderLastName", inbox.SenderLastName.String)
		put("senderCompany", inbox.SenderCompany.String)
		put("senderTitle", inbox.SenderTitle.String)
		put("senderPhone", inbox.SenderPhone.String)
		put("senderWebsite", inbox.SenderWebsite.String)
		put("fromName", inbox.FromName.String)
		put("fromEmail", inbox.Email)
	}

	// linkedin_url is the documented snake form; make sure both spellings
	// resolve even though toSnake("linkedinUrl") already yields it.
	if v, ok := vars["linkedin_url"]; ok {
		vars["linkedinUrl"] = v
	}

	return vars
}
