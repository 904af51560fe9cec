package quant

import (
	"fmt"
	"sync"

	"tendercortex.app/cortex/common/llm"
)

// The extraction prompt embeds the generated JSON schema of Extraction so
// the contract in the prompt can never drift from the Go type.
var extractionSchema = sync.OnceValue(func() string {
	return llm.SchemaJSON(Extraction{})
})

func extractionPrompt(contextText, question string) string {
	return fmt.Sprintf(`Eres un extractor de datos numericos especializado en documentos de licitaciones.
Tu tarea es identificar y extraer TODOS los datos numericos relevantes del contexto para responder la pregunta.

INSTRUCCIONES:
1. Busca montos, porcentajes, cantidades, fechas con valores, metricas
2. Identifica las categorias o etiquetas asociadas a cada numero
3. Detecta si hay series temporales o comparaciones
4. Indica si los datos estan completos o hay valores faltantes

La respuesta debe ser un JSON estricto que cumpla este esquema:
%s

Si NO hay datos numericos relevantes, responde:
{
    "data_found": false,
    "data_type": "none",
    "categories": [],
    "values": [],
    "unit": "",
    "data_quality": "incomplete",
    "notes": "No se encontraron datos numericos relevantes para la pregunta"
}

Contexto del documento:
%s

Pregunta del usuario:
%s

Responde SOLO con el JSON, sin texto adicional:`, extractionSchema(), contextText, question)
}

func strategyPrompt(data, question string) string {
	return fmt.Sprintf(`Eres un experto en visualizacion de datos. Basandote en el tipo de datos,
decide la mejor forma de visualizarlos.

REGLAS:
- Comparar volumenes/cantidades -> "bar" (grafico de barras)
- Evolucion temporal/tendencias -> "line" (grafico de lineas)
- Distribucion/porcentajes de un todo -> "pie" (grafico circular)
- Datos tabulares complejos -> "table" (tabla formateada)
- Valor unico o datos insuficientes -> "none" (solo texto)

Datos extraidos:
%s

Pregunta del usuario:
%s

Responde SOLO con una palabra: bar, line, pie, table, o none`, data, question)
}

func insightPrompt(chartType, data, question string) string {
	return fmt.Sprintf(`Eres QuanT, un analista cuantitativo experto. Genera un insight claro y conciso
basado en los datos y la visualizacion.

INSTRUCCIONES:
- Comienza con el hallazgo principal (ej: "El presupuesto total es de...")
- Menciona comparaciones o tendencias si existen
- Destaca valores criticos en **negrita**
- Si hay anomalias o datos faltantes, mencionalo
- Se preciso: usa los numeros exactos del contexto

Tipo de grafico generado: %s
Datos analizados: %s
Pregunta original: %s

Genera el insight (2-4 oraciones):`, chartType, data, question)
}
