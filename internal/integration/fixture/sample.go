package fixture

import "github.com/leapstack-labs/dataload/internal/record"

// item builds a record shaped like the backend's integration item metadata.
func item(id, typ, name string, parentID, parentName any, created, modified string) record.Record {
	return record.New(
		record.F("id", id),
		record.F("type", typ),
		record.F("directory", false),
		record.F("parent_path_or_name", parentName),
		record.F("parent_id", parentID),
		record.F("name", name),
		record.F("creation_time", created),
		record.F("last_modified_time", modified),
		record.F("url", nil),
		record.F("visibility", true),
	)
}

// Sample returns built-in data for every supported endpoint, used when the
// fixture backend runs without a data file.
func Sample() Data {
	return Data{
		"hubspot": {
			item("101_Contact", "Contact", "Ada Lovelace", nil, nil, "2024-01-03T10:00:00Z", "2024-02-01T08:30:00Z"),
			item("102_Contact", "Contact", "Lin Yutang", nil, nil, "2024-01-05T12:15:00Z", "2024-01-05T12:15:00Z"),
			item("103_Contact", "Contact", "grace@example.com", nil, nil, "2024-01-09T16:45:00Z", "2024-03-11T09:00:00Z"),
		},
		"slack": {
			item("C01_Channel", "Channel", "general", nil, nil, "2023-11-20T09:00:00Z", "2023-11-20T09:00:00Z"),
			item("U01_User", "User", "Ada", "C01_Channel", "general", "2023-11-21T09:00:00Z", "2023-11-21T09:00:00Z"),
			item("D01_DM", "Direct Message", "Ada / Lin", nil, nil, "2023-11-22T09:00:00Z", "2023-11-22T09:00:00Z"),
		},
		"notion": {
			item("n-1_page", "page", "Roadmap", nil, nil, "2024-04-01T00:00:00Z", "2024-04-02T00:00:00Z"),
			item("n-2_database", "database", "Tasks", "n-1_page", "Roadmap", "2024-04-01T00:00:00Z", "2024-04-03T00:00:00Z"),
		},
		"airtable": {},
	}
}
