package core

// manifestSchemaURL names the compiled manifest schema resource.
const manifestSchemaURL = "https://go-platform.dev/schemas/plugin-manifest.json"

// manifestSchemaJSON is the closed manifest contract: every known top-level
// key is declared and additionalProperties is false, so optional keys stay
// optional while unknown keys are rejected outright. The capabilities enum
// must stay in lockstep with the Capability constants; a test pins that.
const manifestSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://go-platform.dev/schemas/plugin-manifest.json",
  "type": "object",
  "additionalProperties": false,
  "required": [
    "name",
    "version",
    "displayName",
    "description",
    "author",
    "capabilities",
    "entrypoint"
  ],
  "properties": {
    "name": {
      "type": "string",
      "pattern": "^[a-z0-9-]{3,50}$"
    },
    "version": {
      "type": "string",
      "minLength": 1
    },
    "displayName": {
      "type": "string",
      "minLength": 1,
      "maxLength": 100
    },
    "description": {
      "type": "string",
      "minLength": 1,
      "maxLength": 500
    },
    "author": {
      "type": "string",
      "minLength": 1,
      "maxLength": 100
    },
    "capabilities": {
      "type": "array",
      "minItems": 1,
      "uniqueItems": true,
      "items": {
        "enum": [
          "content:view",
          "content:create",
          "content:edit",
          "content:delete",
          "content:publish",
          "media:view",
          "media:upload",
          "media:delete",
          "taxonomy:view",
          "taxonomy:manage",
          "plugin:view",
          "plugin:manage",
          "user:view",
          "user:manage",
          "settings:view",
          "settings:manage"
        ]
      }
    },
    "entrypoint": {
      "type": "string",
      "minLength": 1
    },
    "frontend": {
      "type": "object",
      "additionalProperties": false,
      "required": ["entry"],
      "properties": {
        "entry": {
          "type": "string",
          "minLength": 1
        },
        "routes": {
          "type": "array",
          "items": {
            "type": "object",
            "additionalProperties": false,
            "required": ["path", "component"],
            "properties": {
              "path": {
                "type": "string",
                "minLength": 1
              },
              "component": {
                "type": "string",
                "minLength": 1
              },
              "label": {
                "type": "string"
              }
            }
          }
        }
      }
    },
    "backend": {
      "type": "object",
      "additionalProperties": false,
      "required": ["entry"],
      "properties": {
        "entry": {
          "type": "string",
          "minLength": 1
        },
        "healthEndpoint": {
          "type": "string"
        }
      }
    },
    "database": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "migrations": {
          "type": "string"
        },
        "tablePrefix": {
          "type": "string",
          "pattern": "^[a-z][a-z0-9_]{0,30}$"
        }
      }
    },
    "settings": {
      "type": "object"
    }
  }
}`
