package llm

// schemaKeys lists every attribute of a vehicular invoice, split by JSON
// type. All of them are required and nullable; anything else is forbidden.
var stringKeys = []string{
	"FECHA_DOCUMENTO",
	"DIRECCION",
	"MODELO_HOMOLOGADO_ANT",
	"CLASE",
	"CILINDRAJE",
	"MODELO",
	"MODELO_REGISTRADO_SRI",
	"RAMV_CPN",
	"NUMERO_FACTURA",
	"COLOR",
	"MOTOR",
	"NOMBRE_CLIENTE",
	"MARCA",
	"RUC",
	"COMBUSTIBLE",
	"TIPO",
	"CONCESIONARIA",
	"VIN_CHASIS",
	"PAIS_ORIGEN",
}

var numberKeys = []string{
	"SUBSIDIO",
	"AÑO",
	"SUBTOTAL",
	"TOTAL",
	"RUEDAS",
	"DESCUENTO",
	"CAPACIDAD",
	"EJES",
	"IVA",
	"TONELAJE",
}

// BuildInvoiceSchema returns the invoice JSON Schema as a generic map.
// It is passed to the hosted model as a structured-output constraint and
// used locally to validate every response.
func BuildInvoiceSchema() map[string]any {
	props := make(map[string]any, len(stringKeys)+len(numberKeys))
	required := make([]string, 0, len(stringKeys)+len(numberKeys))
	for _, k := range stringKeys {
		props[k] = map[string]any{"type": []string{"string", "null"}}
		required = append(required, k)
	}
	for _, k := range numberKeys {
		props[k] = map[string]any{"type": []string{"number", "null"}}
		required = append(required, k)
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

// SchemaKeys returns every field name of the invoice schema.
func SchemaKeys() []string {
	keys := make([]string, 0, len(stringKeys)+len(numberKeys))
	keys = append(keys, stringKeys...)
	keys = append(keys, numberKeys...)
	return keys
}
