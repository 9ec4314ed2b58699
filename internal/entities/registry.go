package entities

import "sort"

const (
	MaintenanceDateMessage = "Next maintenance date cannot be before the last maintenance date."
	TrainingDateMessage    = "Next training date cannot be before the last training date."
)

var maintenancePair = DatePair{Last: "lastMaintenance", Next: "nextMaintenance", Message: MaintenanceDateMessage}

var registry = map[string]Definition{
	"client": {
		Name:  "client",
		Label: "Clients",
		Schema: Schema{Fields: []Field{
			{Key: "id", Label: "ID", Type: FieldNumber},
			{Key: "fullName", Label: "Full name", Type: FieldString, Required: true},
			{Key: "clientType", Label: "Type", Type: FieldString},
			{Key: "email", Label: "Email", Type: FieldString},
			{Key: "phone", Label: "Phone", Type: FieldString},
			{Key: "lastMaintenance", Label: "Last maintenance", Type: FieldDate},
			{Key: "nextMaintenance", Label: "Next maintenance", Type: FieldDate},
			{Key: "createdAt", Label: "Created", Type: FieldDate},
		}},
		DatePairs: []DatePair{maintenancePair},
		Associations: []Association{
			{Type: "location", Label: "Locations", Entity: "location", Route: LinkTyped, Cardinality: Many, Inline: true},
			{Type: "thirdparty", Label: "Third parties", Entity: "thirdparty", Route: LinkTyped, Cardinality: Many, Inline: true},
		},
		Classifiers: []string{"clientType"},
		DefaultSort: "fullName",
		DisplayKey:  "fullName",
		Delete:      DeleteByID,
	},
	"worker": {
		Name:  "worker",
		Label: "Workers",
		Schema: Schema{Fields: []Field{
			{Key: "id", Label: "ID", Type: FieldNumber},
			{Key: "name", Label: "Name", Type: FieldString, Required: true},
			{Key: "surname", Label: "Surname", Type: FieldString},
			{Key: "email", Label: "Email", Type: FieldString},
			{Key: "phone", Label: "Phone", Type: FieldString},
			{Key: "favorite", Label: "Favorite", Type: FieldBool},
		}},
		Associations: []Association{
			{Type: "client", Label: "Client", Entity: "client", Route: LinkDirect, Cardinality: One},
			{Type: "role", Label: "Roles", Entity: "role", Route: LinkTyped, Cardinality: Many, Inline: true},
		},
		Classifiers: []string{"role"},
		FavoriteKey: "favorite",
		DefaultSort: "name",
		DisplayKey:  "name",
		Delete:      DeleteByAction,
	},
	"device": {
		Name:  "device",
		Label: "Devices",
		Schema: Schema{Fields: []Field{
			{Key: "id", Label: "ID", Type: FieldNumber},
			{Key: "name", Label: "Name", Type: FieldString, Required: true},
			{Key: "serialNumber", Label: "Serial number", Type: FieldString},
			{Key: "deviceType", Label: "Type", Type: FieldString},
			{Key: "lastMaintenance", Label: "Last maintenance", Type: FieldDate},
			{Key: "nextMaintenance", Label: "Next maintenance", Type: FieldDate},
		}},
		DatePairs: []DatePair{maintenancePair},
		Associations: []Association{
			{Type: "client", Label: "Client", Entity: "client", Route: LinkDirect, Cardinality: One},
			{Type: "location", Label: "Location", Entity: "location", Route: LinkTyped, Cardinality: One, Inline: true},
			{Type: "maintenance", Label: "Maintenance files", Entity: "maintenance", Route: LinkTyped, Cardinality: Many},
		},
		Classifiers: []string{"deviceType"},
		DefaultSort: "name",
		DisplayKey:  "name",
		Delete:      DeleteByID,
	},
	"training": {
		Name:  "training",
		Label: "Trainings",
		Schema: Schema{Fields: []Field{
			{Key: "id", Label: "ID", Type: FieldNumber},
			{Key: "name", Label: "Name", Type: FieldString, Required: true},
			{Key: "lastTraining", Label: "Last training", Type: FieldDate},
			{Key: "nextTraining", Label: "Next training", Type: FieldDate},
		}},
		DatePairs: []DatePair{{Last: "lastTraining", Next: "nextTraining", Message: TrainingDateMessage}},
		Associations: []Association{
			{Type: "trainer", Label: "Trainers", Entity: "trainer", Route: LinkTyped, Cardinality: Many, Inline: true},
			{Type: "worker", Label: "Workers", Entity: "worker", Route: LinkTyped, Cardinality: Many},
		},
		DefaultSort: "lastTraining",
		DisplayKey:  "name",
		Delete:      DeleteByAction,
	},
	"software": {
		Name:  "software",
		Label: "Software",
		Schema: Schema{Fields: []Field{
			{Key: "id", Label: "ID", Type: FieldNumber},
			{Key: "name", Label: "Name", Type: FieldString, Required: true},
			{Key: "version", Label: "Version", Type: FieldString},
			{Key: "licenseExpiry", Label: "License expiry", Type: FieldDate},
		}},
		Associations: []Association{
			{Type: "client", Label: "Clients", Entity: "client", Route: LinkTyped, Cardinality: Many},
		},
		DefaultSort: "name",
		DisplayKey:  "name",
		Delete:      DeleteByID,
	},
	"ticket": {
		Name:  "ticket",
		Label: "Tickets",
		Schema: Schema{Fields: []Field{
			{Key: "id", Label: "ID", Type: FieldNumber},
			{Key: "title", Label: "Title", Type: FieldString, Required: true},
			{Key: "status", Label: "Status", Type: FieldString},
			{Key: "priority", Label: "Priority", Type: FieldString},
			{Key: "createdAt", Label: "Created", Type: FieldDate},
		}},
		Associations: []Association{
			{Type: "client", Label: "Client", Entity: "client", Route: LinkDirect, Cardinality: One},
			{Type: "device", Label: "Device", Entity: "device", Route: LinkTyped, Cardinality: One},
			{Type: "worker", Label: "Workers", Entity: "worker", Route: LinkTyped, Cardinality: Many},
		},
		Classifiers: []string{"status", "priority"},
		DefaultSort: "createdAt",
		DisplayKey:  "title",
		Delete:      DeleteByAction,
	},
	"location": {
		Name:  "location",
		Label: "Locations",
		Schema: Schema{Fields: []Field{
			{Key: "id", Label: "ID", Type: FieldNumber},
			{Key: "name", Label: "Name", Type: FieldString, Required: true},
			{Key: "address", Label: "Address", Type: FieldString},
			{Key: "city", Label: "City", Type: FieldString},
		}},
		DefaultSort: "name",
		DisplayKey:  "name",
		Delete:      DeleteByID,
	},
	"thirdparty": {
		Name:  "thirdparty",
		Label: "Third parties",
		Schema: Schema{Fields: []Field{
			{Key: "id", Label: "ID", Type: FieldNumber},
			{Key: "name", Label: "Name", Type: FieldString, Required: true},
			{Key: "email", Label: "Email", Type: FieldString},
		}},
		DefaultSort: "name",
		DisplayKey:  "name",
		Delete:      DeleteByID,
	},
	"role": {
		Name:  "role",
		Label: "Roles",
		Schema: Schema{Fields: []Field{
			{Key: "id", Label: "ID", Type: FieldNumber},
			{Key: "name", Label: "Name", Type: FieldString, Required: true},
		}},
		DefaultSort: "name",
		DisplayKey:  "name",
		Delete:      DeleteByID,
	},
	"trainer": {
		Name:  "trainer",
		Label: "Trainers",
		Schema: Schema{Fields: []Field{
			{Key: "id", Label: "ID", Type: FieldNumber},
			{Key: "name", Label: "Name", Type: FieldString, Required: true},
			{Key: "email", Label: "Email", Type: FieldString},
		}},
		DefaultSort: "name",
		DisplayKey:  "name",
		Delete:      DeleteByID,
	},
	"maintenance": {
		Name:  "maintenance",
		Label: "Maintenance files",
		Schema: Schema{Fields: []Field{
			{Key: "id", Label: "ID", Type: FieldNumber},
			{Key: "fileName", Label: "File", Type: FieldString, Required: true},
			{Key: "uploadedAt", Label: "Uploaded", Type: FieldDate},
		}},
		DefaultSort: "uploadedAt",
		DisplayKey:  "fileName",
		Delete:      DeleteByAction,
	},
}

// Lookup возвращает описание сущности по имени из URL.
func Lookup(name string) (Definition, bool) {
	d, ok := registry[name]
	return d, ok
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
