package validators

import "go.mongodb.org/mongo-driver/bson"

var ListingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"title",
			"description",
			"price",
			"maxGuests",
			"location",
			"reservations",
			"isActive",
			"version",
			"createdAt",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 40,
			},

			"description": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"price": bson.M{
				"bsonType": "number",
				"minimum":  0,
			},

			"squareMeters": bson.M{
				"bsonType": "number",
				"minimum":  0,
			},

			"maxGuests": bson.M{
				"bsonType": "number",
				"minimum":  0,
			},

			"location": bson.M{
				"bsonType": "object",
				"required": []string{"province", "city"},
				"properties": bson.M{
					"province": bson.M{"bsonType": "string", "maxLength": 100},
					"city":     bson.M{"bsonType": "string", "maxLength": 100},
				},
			},

			"photos": bson.M{
				"bsonType": []string{"array", "null"},
				"maxItems": 4,
			},

			"reservations": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"email", "startDate", "endDate"},
					"properties": bson.M{
						"email":     bson.M{"bsonType": "string", "minLength": 1},
						"startDate": bson.M{"bsonType": "date"},
						"endDate":   bson.M{"bsonType": "date"},
					},
				},
			},

			"isActive": bson.M{
				"bsonType": "bool",
			},

			"version": bson.M{
				"bsonType": "number",
				"minimum":  1,
			},

			"createdAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
